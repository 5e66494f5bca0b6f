package config

const (
	AuditSinkLog   = "log"
	AuditSinkMongo = "mongo"
	AuditSinkNone  = "none"
)

// AuditConfig selects where authenticated requests are recorded
type AuditConfig struct {
	Sink string `env:"AUDIT_SINK" env-default:"log"`
}

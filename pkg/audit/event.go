// Package audit records requests made by signed-in users.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/tendant/dental-idm/pkg/mongodb"
)

// Event is one audited request
type Event struct {
	ID         string                 `bson:"_id" json:"id"`
	UserID     string                 `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Email      string                 `bson:"email,omitempty" json:"email,omitempty"`
	Method     string                 `bson:"method" json:"method"`
	URI        string                 `bson:"uri" json:"uri"`
	Status     int                    `bson:"status" json:"status"`
	RemoteAddr string                 `bson:"remote_addr,omitempty" json:"remote_addr,omitempty"`
	RequestID  string                 `bson:"request_id,omitempty" json:"request_id,omitempty"`
	Message    string                 `bson:"message,omitempty" json:"message,omitempty"`
	Timestamp  time.Time              `bson:"timestamp" json:"timestamp"`
	Duration   time.Duration          `bson:"duration" json:"duration"`
	Metadata   map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// WithMetadata returns e with key set in Metadata. The middleware records
// the matched chi route pattern and the response size this way.
func (e Event) WithMetadata(key string, value interface{}) Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sink stores audit events
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// LogSink writes events to slog
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink logs to logger, or to slog.Default when logger is nil
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "audit")}
}

func (s *LogSink) Record(ctx context.Context, e Event) error {
	s.logger.InfoContext(ctx, "Audit event",
		"id", e.ID,
		"user_id", e.UserID,
		"method", e.Method,
		"uri", e.URI,
		"status", e.Status,
		"duration", e.Duration,
		"message", e.Message,
		"route", e.Metadata["route"],
	)
	return nil
}

// MongoSink inserts events into the audit_events collection
type MongoSink struct {
	store *mongodb.Store
}

func NewMongoSink(store *mongodb.Store) *MongoSink {
	return &MongoSink{store: store}
}

func (s *MongoSink) Record(ctx context.Context, e Event) error {
	_, err := s.store.Collection(mongodb.AuditCollection).InsertOne(ctx, e)
	return err
}

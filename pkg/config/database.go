package config

import (
	"time"

	"github.com/tendant/dental-idm/pkg/mongodb"
)

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI            string        `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DATABASE" env-default:"dental"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" env-default:"10s"`
}

// ToStoreConfig converts the config to a mongodb.Config
func (m MongoConfig) ToStoreConfig() mongodb.Config {
	return mongodb.Config{
		URI:            m.URI,
		Database:       m.Database,
		ConnectTimeout: m.ConnectTimeout,
	}
}

// Package mongodb owns the MongoDB client used by the repositories.
//
// The Store is created once in main, handed to every repository that needs
// a collection, and closed on shutdown.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// UsersCollection holds account documents
	UsersCollection = "users"
	// AuditCollection holds audit events of authenticated requests
	AuditCollection = "audit_events"

	defaultConnectTimeout = 10 * time.Second
)

// Config describes how to reach the database
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Store wraps a connected client and the selected database
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and verifies the connection with a ping
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	slog.Info("MongoDB connected", "database", cfg.Database)
	return &Store{client: client, db: client.Database(cfg.Database)}, nil
}

// Database returns the database handle
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Collection returns a collection of the configured database
func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the indexes the account and audit collections rely on.
// The unique email index is what turns a duplicate signup into a Conflict,
// and the sparse hash index serves link verification, which is keyed by the
// token hash alone.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	users := s.Collection(UsersCollection)
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "secrets.email_verify.hash", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("email_verify_hash"),
		},
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("google_id"),
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes on %s: %w", UsersCollection, err)
	}

	audit := s.Collection(AuditCollection)
	_, err = audit.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("user_timestamp"),
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes on %s: %w", AuditCollection, err)
	}
	return nil
}

// Ping checks the primary is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

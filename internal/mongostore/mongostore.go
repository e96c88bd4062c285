// Package mongostore builds the MongoDB client shared by all requests.
// The driver pools connections internally; one client per process.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/SergeyParamoshkin/myblog/internal/config"
)

// Store owns the client and the database the service works in.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// New creates the client without contacting the server.
func New(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout()).
		SetServerSelectionTimeout(cfg.ConnectTimeout())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(cfg.Database),
		logger: logger,
	}, nil
}

// Connect creates the client and pings the primary.
func Connect(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger) (*Store, error) {
	s, err := New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout())
	defer cancel()

	if err := s.client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = s.client.Disconnect(ctx)

		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	s.logger.Info("build mongodb client", zap.String("database", cfg.Database))

	return s, nil
}

// Collection returns a handle to the named collection.
func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongodb disconnect: %w", err)
	}

	s.logger.Info("disconnect mongodb client", zap.String("database", s.db.Name()))

	return nil
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/docuforge/docuforge/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAttempts and MongoBackoff bound how long startup waits for MongoDB.
var (
	MongoAttempts = 5
	MongoBackoff  = time.Second
)

// Mongo is a connected client plus the database holding the collections.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// ConnectMongo connects to uri and selects dbName, retrying with exponential
// backoff while the server is unreachable. A malformed uri fails at once.
func ConnectMongo(ctx context.Context, uri, dbName string, timeout time.Duration) (*Mongo, error) {
	opts := options.Client().ApplyURI(uri)
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("mongo uri: %w", err)
	}
	backoff := MongoBackoff
	var lastErr error
	for attempt := 1; attempt <= MongoAttempts; attempt++ {
		client, err := dial(ctx, opts, timeout)
		if err == nil {
			return &Mongo{Client: client, DB: client.Database(dbName)}, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, MongoAttempts, err)
		if attempt == MongoAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", MongoAttempts, lastErr)
}

func dial(ctx context.Context, opts *options.ClientOptions, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func (m *Mongo) Ping(ctx context.Context) error { return m.Client.Ping(ctx, nil) }

func (m *Mongo) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Client.Disconnect(ctx); err != nil {
		logger.Warnf("mongo disconnect: %v", err)
	}
}

package persistence

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	mongoAppName        = "enroute-service"
	mongoConnectTimeout = 10 * time.Second
)

// mongoClientOptions builds the client options for the airport store.
// Credentials are only set when both parts are present.
func mongoClientOptions(uri, username, password string) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName(mongoAppName).
		SetConnectTimeout(mongoConnectTimeout).
		SetServerSelectionTimeout(mongoConnectTimeout).
		SetRetryWrites(true)

	if username != "" && password != "" {
		opts.SetAuth(options.Credential{
			Username: username,
			Password: password,
		})
	}
	return opts
}

// NewMongoClient connects to MongoDB and checks the primary is reachable.
// The client is disconnected again when the ping fails.
func NewMongoClient(ctx context.Context, uri, username, password string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, mongoClientOptions(uri, username, password))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, nil
}

// GetDatabase returns the database holding the airports and flights collections
func GetDatabase(client *mongo.Client, name string) *mongo.Database {
	return client.Database(name)
}

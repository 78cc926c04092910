package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// ConnectMongo connects to the document-store backend used when
// STORE_DRIVER=mongo. The database is the one named in the connection url.
func ConnectMongo(ctx context.Context, s Settings, logg *logrus.Logger) (*mongo.Client, *mongo.Database, error) {
	if s.MongoURL == "" {
		return nil, nil, fmt.Errorf("database connection URL is empty")
	}

	clientOptions := options.Client().ApplyURI(s.MongoURL).
		SetMaxPoolSize(uint64(2*s.Workers + 2)).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(30 * time.Second)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	cs, err := connectionDatabaseName(s.MongoURL)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	logg.WithField("database", cs).Info("Successfully connected to MongoDB")
	return client, client.Database(cs), nil
}

func connectionDatabaseName(uri string) (string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("parse MONGO_DBURL: %w", err)
	}
	if cs.Database == "" {
		return "", fmt.Errorf("MONGO_DBURL must name a database")
	}
	return cs.Database, nil
}

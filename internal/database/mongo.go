package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/sandeepkv93/movie-catalog-backend/internal/config"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
	"github.com/sandeepkv93/movie-catalog-backend/internal/repository"
)

const mongoConnectTimeout = 10 * time.Second

// OpenMongo connects to MongoDB, pings the primary and ensures the user
// indexes exist.
func OpenMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(ctx, "connect", time.Since(start))
	}()

	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName(cfg.OTELServiceName).
		SetConnectTimeout(mongoConnectTimeout))
	if err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "connect", "error")
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		observability.RecordDatabaseStartupEvent(ctx, "connect", "error")
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	observability.RecordDatabaseStartupEvent(ctx, "connect", "success")

	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureUserIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		observability.RecordDatabaseStartupEvent(ctx, "migrate", "error")
		return nil, nil, err
	}
	observability.RecordDatabaseStartupEvent(ctx, "migrate", "success")
	return client, db, nil
}

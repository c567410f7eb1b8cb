package main

import (
	"context"
	"time"

	mongoMigration "gather/internal/migrations/mongo"
	"gather/pkg/config"
)

const (
	JobName          = "mongo-migration"
	migrationTimeout = 120 * time.Second
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Mongo migration job")
	err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log)
	cfg.GracefulShutdown()
	if err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}

// Package mongo creates the collections, validators and indexes the
// bookings service relies on. It is safe to run repeatedly.
package mongo

import (
	"context"
	"fmt"

	"gather/internal/migrations/mongo/validators"
	"gather/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	EventsCollection   = "Events"
	BookingsCollection = "Bookings"
)

var (
	EventsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "start_time", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
	}

	// The event_id/status pair backs the committed-seat sum taken on every
	// booking request.
	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "event_id", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "event_id", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "_id", Value: 1},
		}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	}
)

type CollectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func Collections() []CollectionDef {
	return []CollectionDef{
		{Name: EventsCollection, Indexes: EventsIndexes, Validator: validators.EventValidator},
		{Name: BookingsCollection, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed to update validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	eventserrors "gather/internal/events/errors"
	"gather/pkg/config"
	mongotx "gather/pkg/db/mongo"
	"gather/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Events"
)

type mongoEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	FindByID(ctx context.Context, id string) (*model.Event, error)
	FindAll(ctx context.Context, status model.EventStatus, limit int, offset int64) ([]*model.Event, error)
	Count(ctx context.Context, status model.EventStatus) (int64, error)
	Update(ctx context.Context, event *model.Event) error
	UpdateStatus(ctx context.Context, id string, from, to model.EventStatus) error
	SetCapacity(ctx context.Context, id string, capacity *int) error
	// Touch increments the event's booking sequence and returns the fresh
	// document. Inside a transaction it makes every seat-affecting write on
	// the same event conflict with any other one in flight.
	Touch(ctx context.Context, id string) (*model.Event, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoEventRepository(cfg *config.Config) EventRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout leaves a SessionContext untouched; wrapping it would detach the
// call from the running transaction.
func (r *mongoEventRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", eventserrors.ErrInvalidID, id)
	}
	return oid, nil
}

func (r *mongoEventRepository) Create(ctx context.Context, event *model.Event) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	event.CreatedAt = now
	event.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		event.ID = oid.Hex()
	}
	return nil
}

func (r *mongoEventRepository) FindByID(ctx context.Context, id string) (*model.Event, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var event model.Event
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&event); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, eventserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return &event, nil
}

func statusFilter(status model.EventStatus) bson.M {
	if status == "" {
		return bson.M{}
	}
	return bson.M{"status": status}
}

func (r *mongoEventRepository) FindAll(ctx context.Context, status model.EventStatus, limit int, offset int64) ([]*model.Event, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, statusFilter(status), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*model.Event{}
	if err = cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

func (r *mongoEventRepository) Count(ctx context.Context, status model.EventStatus) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, statusFilter(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Update writes the descriptive fields. Status and capacity have their own
// writers so they cannot be changed by accident through a plain edit.
func (r *mongoEventRepository) Update(ctx context.Context, event *model.Event) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(event.ID)
	if err != nil {
		return err
	}

	event.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"title":       event.Title,
			"slug":        event.Slug,
			"description": event.Description,
			"start_time":  event.StartTime,
			"end_time":    event.EndTime,
			"location":    event.Location,
			"price":       event.Price,
			"updated_at":  event.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.MatchedCount == 0 {
		return eventserrors.ErrNotFound
	}
	return nil
}

// UpdateStatus moves the event from one status to another only if it is
// still in the expected one.
func (r *mongoEventRepository) UpdateStatus(ctx context.Context, id string, from, to model.EventStatus) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid, "status": from}
	update := bson.M{
		"$set": bson.M{
			"status":     to,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missOrConflict(ctx, oid)
	}
	return nil
}

func (r *mongoEventRepository) SetCapacity(ctx context.Context, id string, capacity *int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"capacity":   capacity,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to update event capacity: %w", err)
	}
	if result.MatchedCount == 0 {
		return eventserrors.ErrNotFound
	}
	return nil
}

func (r *mongoEventRepository) Touch(ctx context.Context, id string) (*model.Event, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var event model.Event
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"booking_seq": 1}}, opts).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, eventserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to touch event: %w", err)
	}
	return &event, nil
}

func (r *mongoEventRepository) missOrConflict(ctx context.Context, oid primitive.ObjectID) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to check event existence: %w", err)
	}
	if n == 0 {
		return eventserrors.ErrNotFound
	}
	return eventserrors.ErrInvalidTransition
}

func (r *mongoEventRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "gather/internal/bookings/errors"
	"gather/pkg/config"
	mongotx "gather/pkg/db/mongo"
	"gather/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

// BookingRepository is the ledger. There is no way to change a booking's
// seat count or delete it; only its status moves.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	// UpdateStatus is a compare-and-set: it fails with ErrStatusConflict
	// unless the stored status is still from.
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) error
	FindByEvent(ctx context.Context, eventID string, statuses []model.BookingStatus, limit int, offset int64) ([]*model.Booking, error)
	CountByEvent(ctx context.Context, eventID string, statuses []model.BookingStatus) (int64, error)
	SumSeats(ctx context.Context, eventID string, statuses []model.BookingStatus) (int, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext is returned unchanged: wrapping it would detach the call
// from the running transaction.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": from}
	update := bson.M{
		"$set": bson.M{
			"status":     to,
			"updated_at": at,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	if result.MatchedCount == 0 {
		n, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to check booking existence: %w", err)
		}
		if n == 0 {
			return bookingserrors.ErrNotFound
		}
		return bookingserrors.ErrStatusConflict
	}

	return nil
}

func (r *mongoBookingRepository) FindByEvent(
	ctx context.Context,
	eventID string,
	statuses []model.BookingStatus,
	limit int, offset int64,
) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, buildEventFilter(eventID, statuses), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) CountByEvent(ctx context.Context, eventID string, statuses []model.BookingStatus) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildEventFilter(eventID, statuses))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// SumSeats totals the seats of the event's bookings in the given statuses.
// Inside a transaction it reads the same snapshot the following write sees.
func (r *mongoBookingRepository) SumSeats(ctx context.Context, eventID string, statuses []model.BookingStatus) (int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildEventFilter(eventID, statuses)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "seats", Value: bson.D{{Key: "$sum", Value: "$seats"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum booked seats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Seats int `bson:"seats"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("failed to decode seat sum: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Seats, nil
}

func buildEventFilter(eventID string, statuses []model.BookingStatus) bson.M {
	filter := bson.M{"event_id": eventID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	return filter
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

package notify

import (
	"context"

	"gather/pkg/kafka"
	"gather/pkg/model"
)

const (
	schemaVersion = "1"
	sourceName    = "bookings-api"
)

// MessagePublisher is satisfied by *kafka.Producer.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaPublisher writes domain events to the notification topic, keyed by
// event id so every booking of an event lands on one partition in order.
type KafkaPublisher struct {
	publisher MessagePublisher
}

func NewKafkaPublisher(publisher MessagePublisher) *KafkaPublisher {
	return &KafkaPublisher{publisher: publisher}
}

func (p *KafkaPublisher) Send(ctx context.Context, event model.DomainEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.EventID).
		WithValue(event).
		WithEventID("").
		WithEventType(event.Type).
		WithCorrelationID(event.BookingID).
		WithSchemaVersion(schemaVersion).
		WithSource(sourceName).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return err
	}
	return p.publisher.Publish(ctx, msg)
}

package notify

import (
	"context"

	"gather/pkg/kafka"
	"gather/pkg/logger"
	"gather/pkg/model"

	"gopkg.in/gomail.v2"
)

// Mailer is satisfied by *mailer.Mailer.
type Mailer interface {
	Compose(event model.DomainEvent) (*gomail.Message, error)
	Deliver(msg *gomail.Message) error
}

// NewMailHandler returns the consumer handler that emails requesters.
// Undecodable or unrenderable messages are permanent failures; SMTP errors
// are transient so the consumer retries them.
func NewMailHandler(m Mailer, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var event model.DomainEvent
		if err := msg.DecodeValue(&event); err != nil {
			return err
		}

		email, err := m.Compose(event)
		if err != nil {
			return kafka.NewPermanentError("failed to compose email", err)
		}
		if email == nil {
			log.Debug("No email for event", "type", event.Type, "booking_id", event.BookingID, "status", event.NewStatus)
			return nil
		}

		if err := m.Deliver(email); err != nil {
			return kafka.NewTransientError("failed to send email", err)
		}
		log.Info("Booking email sent", "type", event.Type, "booking_id", event.BookingID, "status", event.NewStatus)
		return nil
	}
}

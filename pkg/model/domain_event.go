package model

import "time"

const (
	BookingCreated       = "BookingCreated"
	BookingStatusChanged = "BookingStatusChanged"
)

// DomainEvent is emitted after a booking write commits. It carries the
// requester contact so a notifier can reach them without reading the ledger.
type DomainEvent struct {
	Type       string        `json:"type"`
	BookingID  string        `json:"booking_id"`
	EventID    string        `json:"event_id"`
	OldStatus  BookingStatus `json:"old_status,omitempty"`
	NewStatus  BookingStatus `json:"new_status"`
	Seats      int           `json:"seats"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Phone      string        `json:"phone,omitempty"`
	ActorID    string        `json:"actor_id,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func NewBookingCreated(b *Booking, actor Actor, at time.Time) DomainEvent {
	return DomainEvent{
		Type:       BookingCreated,
		BookingID:  b.ID,
		EventID:    b.EventID,
		NewStatus:  b.Status,
		Seats:      b.Seats,
		Name:       b.Name,
		Email:      b.Email,
		Phone:      b.Phone,
		ActorID:    actor.ID,
		OccurredAt: at,
	}
}

func NewBookingStatusChanged(b *Booking, old BookingStatus, actor Actor, at time.Time) DomainEvent {
	return DomainEvent{
		Type:       BookingStatusChanged,
		BookingID:  b.ID,
		EventID:    b.EventID,
		OldStatus:  old,
		NewStatus:  b.Status,
		Seats:      b.Seats,
		Name:       b.Name,
		Email:      b.Email,
		Phone:      b.Phone,
		ActorID:    actor.ID,
		OccurredAt: at,
	}
}

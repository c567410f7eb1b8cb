// Package capacity computes how many seats an event has committed and how
// many remain. Results are only meaningful for a write when read inside the
// same per-event lock and transaction as that write.
package capacity

import (
	"context"
	"math"

	"gather/internal/bookings/lifecycle"
	"gather/pkg/model"
)

type SeatCounter interface {
	SumSeats(ctx context.Context, eventID string, statuses []model.BookingStatus) (int, error)
}

type Accountant struct {
	counter SeatCounter
}

func NewAccountant(counter SeatCounter) *Accountant {
	return &Accountant{counter: counter}
}

// Committed is the sum of seats over the event's seat-holding bookings.
func (a *Accountant) Committed(ctx context.Context, eventID string) (int, error) {
	return a.counter.SumSeats(ctx, eventID, lifecycle.SeatHolding)
}

func (a *Accountant) Availability(ctx context.Context, event *model.Event) (Availability, error) {
	committed, err := a.Committed(ctx, event.ID)
	if err != nil {
		return Availability{}, err
	}
	return Compute(event, committed), nil
}

type Availability struct {
	EventID   string `json:"event_id"`
	Capacity  *int   `json:"capacity"`
	Committed int    `json:"committed"`
	Remaining *int   `json:"remaining"`
}

func Compute(event *model.Event, committed int) Availability {
	a := Availability{
		EventID:   event.ID,
		Committed: committed,
	}
	if event.Capacity != nil {
		c := *event.Capacity
		remaining := max(c-committed, 0)
		a.Capacity = &c
		a.Remaining = &remaining
	}
	return a
}

func (a Availability) Unlimited() bool {
	return a.Capacity == nil
}

// Available returns the remaining seats, or math.MaxInt when unlimited.
func (a Availability) Available() int {
	if a.Remaining == nil {
		return math.MaxInt
	}
	return *a.Remaining
}

// Fits reports whether a party of the given size can be seated whole.
func (a Availability) Fits(seats int) bool {
	return seats <= a.Available()
}

// OverCommitted is true after an operator shrank capacity below current demand.
func (a Availability) OverCommitted() bool {
	return a.Capacity != nil && a.Committed > *a.Capacity
}

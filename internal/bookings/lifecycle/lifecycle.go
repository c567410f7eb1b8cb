// Package lifecycle is the booking state machine. Every legal status change
// and its effect on seat accounting lives in one table; callers never compare
// status strings on their own.
package lifecycle

import (
	"fmt"

	bookingserrors "gather/internal/bookings/errors"
	"gather/pkg/model"
)

// Effect describes what a transition does to an event's committed seats.
type Effect int

const (
	EffectNone Effect = iota
	EffectAcquire
	EffectRelease
)

func (e Effect) String() string {
	switch e {
	case EffectAcquire:
		return "acquire"
	case EffectRelease:
		return "release"
	default:
		return "none"
	}
}

var transitions = map[model.BookingStatus]map[model.BookingStatus]Effect{
	model.BookingPending: {
		model.BookingConfirmed: EffectNone,
		model.BookingCancelled: EffectRelease,
	},
	model.BookingConfirmed: {
		model.BookingPaid:      EffectNone,
		model.BookingCancelled: EffectRelease,
	},
	model.BookingPaid: {
		model.BookingCancelled: EffectRelease,
	},
	model.BookingCancelled: {},
}

// SeatHolding lists the statuses that count against an event's capacity.
var SeatHolding = []model.BookingStatus{
	model.BookingPending,
	model.BookingConfirmed,
	model.BookingPaid,
}

// TransitionError is returned for any change outside the table.
type TransitionError struct {
	From model.BookingStatus
	To   model.BookingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("booking cannot move from %q to %q", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == bookingserrors.ErrInvalidTransition
}

// Initial is the status every new booking starts in. Creating a booking is
// the only EffectAcquire transition.
func Initial() (model.BookingStatus, Effect) {
	return model.BookingPending, EffectAcquire
}

func IsKnown(s model.BookingStatus) bool {
	_, ok := transitions[s]
	return ok
}

func IsSeatHolding(s model.BookingStatus) bool {
	for _, held := range SeatHolding {
		if s == held {
			return true
		}
	}
	return false
}

func IsTerminal(s model.BookingStatus) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Transition validates from→to and returns its seat effect.
func Transition(from, to model.BookingStatus) (Effect, error) {
	next, ok := transitions[from]
	if !ok {
		return EffectNone, &TransitionError{From: from, To: to}
	}
	effect, ok := next[to]
	if !ok {
		return EffectNone, &TransitionError{From: from, To: to}
	}
	return effect, nil
}

func CanTransition(from, to model.BookingStatus) bool {
	_, err := Transition(from, to)
	return err == nil
}

// Next returns the statuses reachable from s in a stable order.
func Next(s model.BookingStatus) []model.BookingStatus {
	var out []model.BookingStatus
	for _, candidate := range []model.BookingStatus{
		model.BookingPending,
		model.BookingConfirmed,
		model.BookingPaid,
		model.BookingCancelled,
	} {
		if CanTransition(s, candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

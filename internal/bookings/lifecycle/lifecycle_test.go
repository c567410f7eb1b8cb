package lifecycle

import (
	"errors"
	"testing"

	bookingserrors "gather/internal/bookings/errors"
	"gather/pkg/model"
)

var allStatuses = []model.BookingStatus{
	model.BookingPending,
	model.BookingConfirmed,
	model.BookingPaid,
	model.BookingCancelled,
}

func TestTransition_LegalTable(t *testing.T) {
	legal := map[[2]model.BookingStatus]Effect{
		{model.BookingPending, model.BookingConfirmed}:   EffectNone,
		{model.BookingPending, model.BookingCancelled}:   EffectRelease,
		{model.BookingConfirmed, model.BookingPaid}:      EffectNone,
		{model.BookingConfirmed, model.BookingCancelled}: EffectRelease,
		{model.BookingPaid, model.BookingCancelled}:      EffectRelease,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			from, to := from, to
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				effect, err := Transition(from, to)
				want, ok := legal[[2]model.BookingStatus{from, to}]
				if ok {
					if err != nil {
						t.Fatalf("expected legal transition, got %v", err)
					}
					if effect != want {
						t.Errorf("expected effect %s, got %s", want, effect)
					}
					return
				}
				if err == nil {
					t.Fatalf("expected InvalidTransition, got effect %s", effect)
				}
				if !errors.Is(err, bookingserrors.ErrInvalidTransition) {
					t.Errorf("expected ErrInvalidTransition, got %v", err)
				}
			})
		}
	}
}

func TestTransition_PendingToPaidRequiresConfirmation(t *testing.T) {
	if CanTransition(model.BookingPending, model.BookingPaid) {
		t.Fatal("pending -> paid must go through confirmed")
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	_, err := Transition("refunded", model.BookingCancelled)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if te.From != "refunded" || te.To != model.BookingCancelled {
		t.Errorf("unexpected error fields: %+v", te)
	}
}

func TestSeatHolding(t *testing.T) {
	tests := []struct {
		status model.BookingStatus
		want   bool
	}{
		{model.BookingPending, true},
		{model.BookingConfirmed, true},
		{model.BookingPaid, true},
		{model.BookingCancelled, false},
		{"unknown", false},
	}

	for _, tt := range tests {
		if got := IsSeatHolding(tt.status); got != tt.want {
			t.Errorf("IsSeatHolding(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestInitialAcquiresSeats(t *testing.T) {
	status, effect := Initial()
	if status != model.BookingPending {
		t.Errorf("expected initial status pending, got %s", status)
	}
	if effect != EffectAcquire {
		t.Errorf("expected acquire effect, got %s", effect)
	}
}

func TestTerminalAndNext(t *testing.T) {
	if !IsTerminal(model.BookingCancelled) {
		t.Error("cancelled must be terminal")
	}
	if IsTerminal(model.BookingPaid) {
		t.Error("paid is not terminal")
	}
	if got := Next(model.BookingCancelled); len(got) != 0 {
		t.Errorf("expected no next statuses from cancelled, got %v", got)
	}

	got := Next(model.BookingPending)
	if len(got) != 2 || got[0] != model.BookingConfirmed || got[1] != model.BookingCancelled {
		t.Errorf("unexpected next statuses from pending: %v", got)
	}
}

// Package service reconciles operator changes to an event with the bookings
// already made against it.
package service

import (
	"context"
	"errors"

	bookingserrors "gather/internal/bookings/errors"
	"gather/internal/bookings/capacity"
	"gather/internal/bookings/lifecycle"
	bookingsrepo "gather/internal/bookings/repository"
	bookingsservice "gather/internal/bookings/service"
	eventserrors "gather/internal/events/errors"
	eventsrepo "gather/internal/events/repository"
	"gather/internal/events/validator"
	"gather/pkg/clock"
	"gather/pkg/config"
	mongotx "gather/pkg/db/mongo"
	apperrors "gather/pkg/errors"
	"gather/pkg/model"
)

type AdminService interface {
	SetCapacity(ctx context.Context, actor model.Actor, eventID string, capacity *int) (*model.Event, error)
	CancelEvent(ctx context.Context, actor model.Actor, eventID string) (*model.Event, error)
}

type adminService struct {
	events     eventsrepo.EventRepository
	bookings   bookingsrepo.BookingRepository
	validator  *validator.EventValidator
	accountant *capacity.Accountant
	boundary   *capacity.Boundary
	emitter    bookingsservice.Emitter
	clock      clock.Clock
	cfg        *config.Config
}

func NewAdminService(
	events eventsrepo.EventRepository,
	bookings bookingsrepo.BookingRepository,
	validator *validator.EventValidator,
	boundary *capacity.Boundary,
	emitter bookingsservice.Emitter,
	clk clock.Clock,
	cfg *config.Config,
) AdminService {
	return &adminService{
		events:     events,
		bookings:   bookings,
		validator:  validator,
		accountant: capacity.NewAccountant(bookings),
		boundary:   boundary,
		emitter:    emitter,
		clock:      clk,
		cfg:        cfg,
	}
}

// SetCapacity replaces the event's seat limit. A nil capacity lifts the limit.
// Shrinking below the seats already committed is allowed; existing bookings
// are kept and new requests fail until enough seats are released.
func (s *adminService) SetCapacity(ctx context.Context, actor model.Actor, eventID string, newCapacity *int) (*model.Event, error) {
	if !actor.IsOperator() {
		return nil, apperrors.Forbidden("Only operators can change event capacity")
	}
	if eventID == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}
	if newCapacity != nil && *newCapacity < 0 {
		return nil, apperrors.Validation("Capacity must be zero or greater", map[string]any{
			"capacity": *newCapacity,
		})
	}

	var avail capacity.Availability
	err := s.boundary.Run(ctx, eventID, func(txCtx context.Context) error {
		current, err := s.events.Touch(txCtx, eventID)
		if err != nil {
			return mapEventError(err, eventID)
		}
		if current.Status == model.EventCancelled {
			return apperrors.NotBookable(eventID, string(current.Status))
		}

		if err := s.events.SetCapacity(txCtx, eventID, newCapacity); err != nil {
			return mapEventError(err, eventID)
		}

		current.Capacity = newCapacity
		avail, err = s.accountant.Availability(txCtx, current)
		if err != nil {
			return mapStoreError(err, "Failed to compute availability")
		}
		return nil
	})
	if err != nil {
		s.logFailure("Capacity change failed", err, "event_id", eventID)
		return nil, mapStoreError(err, "Failed to change capacity")
	}

	if avail.OverCommitted() {
		s.cfg.Log.Warn("Event capacity set below committed seats",
			"event_id", eventID,
			"capacity", *avail.Capacity,
			"committed", avail.Committed,
			"actor_id", actor.ID,
		)
	} else {
		s.cfg.Log.Info("Event capacity changed",
			"event_id", eventID,
			"unlimited", avail.Unlimited(),
			"committed", avail.Committed,
			"actor_id", actor.ID,
		)
	}

	return s.reload(ctx, eventID)
}

// CancelEvent cancels the event and then every seat-holding booking on it,
// one compare-and-set per booking, all inside the event's boundary.
func (s *adminService) CancelEvent(ctx context.Context, actor model.Actor, eventID string) (*model.Event, error) {
	if !actor.IsOperator() {
		return nil, apperrors.Forbidden("Only operators can cancel events")
	}
	if eventID == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}

	var cancelled []*model.Booking
	var olds []model.BookingStatus
	at := s.clock.Now()

	err := s.boundary.Run(ctx, eventID, func(txCtx context.Context) error {
		cancelled, olds = nil, nil

		current, err := s.events.Touch(txCtx, eventID)
		if err != nil {
			return mapEventError(err, eventID)
		}
		if err := s.validator.ValidateTransition(current.Status, model.EventCancelled); err != nil {
			return apperrors.InvalidTransition("Event", string(current.Status), string(model.EventCancelled))
		}
		if err := s.events.UpdateStatus(txCtx, eventID, current.Status, model.EventCancelled); err != nil {
			if errors.Is(err, eventserrors.ErrInvalidTransition) {
				return apperrors.Conflict("Event status changed concurrently, reload and retry")
			}
			return mapEventError(err, eventID)
		}

		held, err := s.bookings.FindByEvent(txCtx, eventID, lifecycle.SeatHolding, 0, 0)
		if err != nil {
			return mapStoreError(err, "Failed to load bookings")
		}

		for _, b := range held {
			if _, err := lifecycle.Transition(b.Status, model.BookingCancelled); err != nil {
				return apperrors.InvalidTransition("Booking", string(b.Status), string(model.BookingCancelled))
			}
			if err := s.bookings.UpdateStatus(txCtx, b.ID, b.Status, model.BookingCancelled, at); err != nil {
				if errors.Is(err, bookingserrors.ErrStatusConflict) {
					return apperrors.Conflict("Booking " + b.ID + " changed during cancellation, retry")
				}
				return mapStoreError(err, "Failed to cancel booking")
			}
			olds = append(olds, b.Status)
			b.Status = model.BookingCancelled
			b.UpdatedAt = at
			cancelled = append(cancelled, b)
		}
		return nil
	})
	if err != nil {
		s.logFailure("Event cancellation failed", err, "event_id", eventID)
		return nil, mapStoreError(err, "Failed to cancel event")
	}

	s.cfg.Log.Info("Event cancelled",
		"event_id", eventID,
		"bookings_cancelled", len(cancelled),
		"actor_id", actor.ID,
	)
	for i, b := range cancelled {
		s.emitter.Emit(model.NewBookingStatusChanged(b, olds[i], actor, at))
	}

	return s.reload(ctx, eventID)
}

// --- Helpers ---

func (s *adminService) reload(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, mapEventError(err, eventID)
	}
	return event, nil
}

func (s *adminService) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	switch apperrors.AsAppError(err).Code {
	case apperrors.CodeInternal, apperrors.CodeStoreUnavailable:
		s.cfg.Log.Error(msg, args...)
	default:
		s.cfg.Log.Warn(msg, args...)
	}
}

func mapEventError(err error, id string) error {
	switch {
	case errors.Is(err, eventserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Event", id)
	case errors.Is(err, eventserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid event ID format")
	}
	return mapStoreError(err, "Failed to retrieve event")
}

func mapStoreError(err error, message string) error {
	if apperrors.IsAppError(err) {
		return apperrors.AsAppError(err)
	}
	if mongotx.IsUnavailable(err) {
		return apperrors.StoreUnavailable(message, err)
	}
	return apperrors.Internal(message, err)
}

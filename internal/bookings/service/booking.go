package service

import (
	"context"
	"errors"
	"sync"

	bookingserrors "gather/internal/bookings/errors"
	"gather/internal/bookings/capacity"
	"gather/internal/bookings/lifecycle"
	"gather/internal/bookings/repository"
	"gather/internal/bookings/validator"
	eventserrors "gather/internal/events/errors"
	eventsrepo "gather/internal/events/repository"
	"gather/pkg/clock"
	"gather/pkg/config"
	mongotx "gather/pkg/db/mongo"
	apperrors "gather/pkg/errors"
	"gather/pkg/model"
	"gather/pkg/sanitizer"
)

// Emitter hands committed domain events to the notifier. Emit must not block.
type Emitter interface {
	Emit(event model.DomainEvent)
}

// BookingService is the only writer of the booking ledger.
type BookingService interface {
	RequestBooking(ctx context.Context, eventID string, req *model.BookingRequest, actor model.Actor) (*model.Booking, error)
	ChangeStatus(ctx context.Context, bookingID string, to model.BookingStatus, actor model.Actor) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByEvent(ctx context.Context, eventID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, int64, error)
	Availability(ctx context.Context, eventID string) (*capacity.Availability, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	events     eventsrepo.EventRepository
	validator  *validator.BookingValidator
	accountant *capacity.Accountant
	boundary   *capacity.Boundary
	emitter    Emitter
	clock      clock.Clock
	cfg        *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	events eventsrepo.EventRepository,
	validator *validator.BookingValidator,
	boundary *capacity.Boundary,
	emitter Emitter,
	clk clock.Clock,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		events:     events,
		validator:  validator,
		accountant: capacity.NewAccountant(repo),
		boundary:   boundary,
		emitter:    emitter,
		clock:      clk,
		cfg:        cfg,
	}
}

func (s *bookingService) RequestBooking(ctx context.Context, eventID string, req *model.BookingRequest, actor model.Actor) (*model.Booking, error) {
	if eventID == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}
	if req == nil {
		return nil, apperrors.InvalidInput("Booking request cannot be empty")
	}

	booking := s.newBooking(eventID, req)
	if err := s.validate(booking); err != nil {
		return nil, err
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, mapEventError(err, eventID)
	}
	if !event.Bookable() {
		s.cfg.Log.Warn("Booking rejected, event not bookable", "event_id", eventID, "status", event.Status)
		return nil, apperrors.NotBookable(eventID, string(event.Status))
	}

	err = s.boundary.Run(ctx, eventID, func(txCtx context.Context) error {
		booking.ID = ""

		current, err := s.events.Touch(txCtx, eventID)
		if err != nil {
			return mapEventError(err, eventID)
		}
		if !current.Bookable() {
			return apperrors.NotBookable(eventID, string(current.Status))
		}

		avail, err := s.accountant.Availability(txCtx, current)
		if err != nil {
			return mapStoreError(err, "Failed to compute availability")
		}
		if !avail.Fits(booking.Seats) {
			return apperrors.CapacityExceeded(booking.Seats, avail.Available())
		}

		now := s.clock.Now()
		booking.CreatedAt = now
		booking.UpdatedAt = now
		if err := s.repo.Create(txCtx, booking); err != nil {
			return mapStoreError(err, "Failed to create booking")
		}
		return nil
	})
	if err != nil {
		s.logWriteFailure("Booking request failed", err, "event_id", eventID, "seats", booking.Seats)
		return nil, mapStoreError(err, "Failed to create booking")
	}

	s.cfg.Log.Info("Booking created successfully",
		"booking_id", booking.ID,
		"event_id", eventID,
		"seats", booking.Seats,
		"status", booking.Status,
	)
	s.emitter.Emit(model.NewBookingCreated(booking, actor, booking.CreatedAt))
	return booking, nil
}

// ChangeStatus moves a booking along the lifecycle. Transitions that release
// seats run inside the event boundary; the rest only need the compare-and-set.
func (s *bookingService) ChangeStatus(ctx context.Context, bookingID string, to model.BookingStatus, actor model.Actor) (*model.Booking, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateStatus(to); err != nil {
		return nil, apperrors.Validation("Invalid booking status", map[string]any{"error": err.Error()})
	}

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, mapBookingError(err, bookingID)
	}

	if !actor.IsOperator() && to != model.BookingCancelled {
		s.cfg.Log.Warn("Booking status change forbidden",
			"booking_id", bookingID,
			"actor_id", actor.ID,
			"role", actor.Role,
			"to", to,
		)
		return nil, apperrors.Forbidden("Requesters may only cancel their booking")
	}
	if !ownsBooking(actor, booking) {
		s.cfg.Log.Warn("Booking cancel forbidden, requester does not own booking",
			"booking_id", bookingID,
			"actor_id", actor.ID,
		)
		return nil, apperrors.Forbidden("Requesters may only cancel their own booking")
	}

	effect, err := lifecycle.Transition(booking.Status, to)
	if err != nil {
		s.cfg.Log.Warn("Booking transition rejected", "booking_id", bookingID, "from", booking.Status, "to", to)
		return nil, apperrors.InvalidTransition("Booking", string(booking.Status), string(to))
	}

	var old model.BookingStatus
	apply := func(txCtx context.Context) error {
		current, err := s.repo.FindByID(txCtx, bookingID)
		if err != nil {
			return mapBookingError(err, bookingID)
		}
		if _, err := lifecycle.Transition(current.Status, to); err != nil {
			return apperrors.InvalidTransition("Booking", string(current.Status), string(to))
		}
		if effect == lifecycle.EffectRelease {
			if _, err := s.events.Touch(txCtx, current.EventID); err != nil {
				return mapEventError(err, current.EventID)
			}
		}

		now := s.clock.Now()
		if err := s.repo.UpdateStatus(txCtx, bookingID, current.Status, to, now); err != nil {
			if errors.Is(err, bookingserrors.ErrStatusConflict) {
				return apperrors.InvalidTransition("Booking", string(current.Status), string(to))
			}
			return mapBookingError(err, bookingID)
		}

		old = current.Status
		booking = current
		booking.Status = to
		booking.UpdatedAt = now
		return nil
	}

	if effect == lifecycle.EffectRelease {
		err = s.boundary.Run(ctx, booking.EventID, apply)
	} else {
		err = s.repo.ExecuteTransaction(ctx, apply)
	}
	if err != nil {
		s.logWriteFailure("Booking status change failed", err, "booking_id", bookingID, "to", to)
		return nil, mapStoreError(err, "Failed to update booking status")
	}

	s.cfg.Log.Info("Booking status changed",
		"booking_id", bookingID,
		"event_id", booking.EventID,
		"from", old,
		"to", to,
		"effect", effect.String(),
		"actor_id", actor.ID,
	)
	s.emitter.Emit(model.NewBookingStatusChanged(booking, old, actor, booking.UpdatedAt))
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapBookingError(err, id)
	}
	return booking, nil
}

func (s *bookingService) ListByEvent(ctx context.Context, eventID string, status model.BookingStatus, limit int, offset int64) ([]*model.Booking, int64, error) {
	if eventID == "" {
		return nil, 0, apperrors.InvalidInput("Event ID cannot be empty")
	}

	var statuses []model.BookingStatus
	if status != "" {
		if !lifecycle.IsKnown(status) {
			return nil, 0, apperrors.InvalidInput("Unknown booking status filter: " + string(status))
		}
		statuses = []model.BookingStatus{status}
	}

	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		return nil, 0, mapEventError(err, eventID)
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByEvent(ctx, eventID, statuses)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "event_id", eventID, "error", errCount)
			errCount = mapStoreError(errCount, "Failed to count bookings")
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByEvent(ctx, eventID, statuses, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "event_id", eventID, "limit", limit, "offset", offset, "error", errFind)
			errFind = mapStoreError(errFind, "Failed to retrieve bookings")
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Availability is a point-in-time report for display. It takes no lock, so
// it may be stale by the time a booking request arrives.
func (s *bookingService) Availability(ctx context.Context, eventID string) (*capacity.Availability, error) {
	if eventID == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}

	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, mapEventError(err, eventID)
	}

	avail, err := s.accountant.Availability(ctx, event)
	if err != nil {
		s.cfg.Log.Error("Failed to compute availability", "event_id", eventID, "error", err)
		return nil, mapStoreError(err, "Failed to compute availability")
	}
	return &avail, nil
}

// --- Helpers ---

// ownsBooking reports whether actor may act on booking as its requester.
// Operators own everything; an identified requester must carry the booking's
// email. A requester without an email claim is not identified and is let
// through, as the engine does not authenticate anonymous callers.
func ownsBooking(actor model.Actor, booking *model.Booking) bool {
	if actor.IsOperator() || actor.Email == "" {
		return true
	}
	return sanitizer.NormalizeEmail(actor.Email) == booking.Email
}

func (s *bookingService) newBooking(eventID string, req *model.BookingRequest) *model.Booking {
	status, _ := lifecycle.Initial()
	seats := 1
	if req.Seats != nil {
		seats = *req.Seats
	}

	return &model.Booking{
		EventID: eventID,
		Name:    sanitizer.NormalizeName(req.Name),
		Email:   sanitizer.NormalizeEmail(req.Email),
		Phone:   sanitizer.NormalizePhone(req.Phone),
		Note:    sanitizer.NormalizeText(req.Note),
		Seats:   seats,
		Status:  status,
	}
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "event_id", booking.EventID, "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// logWriteFailure logs business rejections at Warn and everything else at Error.
func (s *bookingService) logWriteFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	appErr := apperrors.AsAppError(err)
	switch appErr.Code {
	case apperrors.CodeInternal, apperrors.CodeStoreUnavailable:
		s.cfg.Log.Error(msg, args...)
	default:
		s.cfg.Log.Warn(msg, args...)
	}
}

func mapBookingError(err error, id string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return mapStoreError(err, "Failed to retrieve booking")
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

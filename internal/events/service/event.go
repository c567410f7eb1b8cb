package service

import (
	"context"
	"errors"
	"sync"

	eventserrors "gather/internal/events/errors"
	"gather/internal/events/repository"
	"gather/internal/events/validator"
	"gather/pkg/config"
	mongotx "gather/pkg/db/mongo"
	apperrors "gather/pkg/errors"
	"gather/pkg/model"
	"gather/pkg/sanitizer"

	"github.com/gosimple/slug"
)

type EventService interface {
	Create(ctx context.Context, actor model.Actor, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, status model.EventStatus, limit int, offset int64) ([]*model.Event, int64, error)
	Update(ctx context.Context, actor model.Actor, id string, update *model.EventUpdate) (*model.Event, error)
}

// CapacityAdjuster owns every change that has to be reconciled with existing
// bookings. Capacity edits and cancellations arriving through Update are
// handed to it.
type CapacityAdjuster interface {
	SetCapacity(ctx context.Context, actor model.Actor, eventID string, capacity *int) (*model.Event, error)
	CancelEvent(ctx context.Context, actor model.Actor, eventID string) (*model.Event, error)
}

type eventService struct {
	repo      repository.EventRepository
	validator *validator.EventValidator
	adjuster  CapacityAdjuster
	cfg       *config.Config
}

func NewEventService(
	repo repository.EventRepository,
	validator *validator.EventValidator,
	adjuster CapacityAdjuster,
	cfg *config.Config,
) EventService {
	return &eventService{
		repo:      repo,
		validator: validator,
		adjuster:  adjuster,
		cfg:       cfg,
	}
}

func (s *eventService) Create(ctx context.Context, actor model.Actor, event *model.Event) error {
	if !actor.IsOperator() {
		return apperrors.Forbidden("Only operators can create events")
	}

	event.ID = ""
	event.Status = model.EventDraft
	event.BookingSeq = 0
	s.sanitize(event)
	if err := s.validate(event); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.cfg.Log.Error("Failed to create event", "title", event.Title, "error", err)
		return mapStoreError(err, "Failed to create event")
	}

	s.cfg.Log.Info("Event created successfully",
		"event_id", event.ID,
		"slug", event.Slug,
		"actor_id", actor.ID,
	)
	return nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}

	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context, status model.EventStatus, limit int, offset int64) ([]*model.Event, int64, error) {
	if status != "" && status != model.EventDraft && status != model.EventPublished && status != model.EventCancelled {
		return nil, 0, apperrors.InvalidInput("Unknown event status filter: " + string(status))
	}

	var count int64
	var events []*model.Event
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, status)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count events", "status", status, "error", errCount)
			errCount = mapStoreError(errCount, "Failed to count events")
		}
	}()

	go func() {
		defer wg.Done()
		events, errFind = s.repo.FindAll(ctx, status, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list events", "status", status, "error", errFind)
			errFind = mapStoreError(errFind, "Failed to retrieve events")
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return events, count, nil
}

// Update applies field edits, then capacity, then status. Everything that can
// be rejected is checked before the first write.
func (s *eventService) Update(ctx context.Context, actor model.Actor, id string, update *model.EventUpdate) (*model.Event, error) {
	if !actor.IsOperator() {
		return nil, apperrors.Forbidden("Only operators can edit events")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Event ID cannot be empty")
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Event update validation failed", "event_id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, id)
	}

	statusChange := update.Status != nil && *update.Status != existing.Status
	if statusChange {
		if err := s.validator.ValidateTransition(existing.Status, *update.Status); err != nil {
			s.cfg.Log.Warn("Event transition rejected",
				"event_id", id,
				"from", existing.Status,
				"to", *update.Status,
			)
			return nil, apperrors.InvalidTransition("Event", string(existing.Status), string(*update.Status))
		}
	}
	if update.Capacity != nil && existing.Status == model.EventCancelled {
		return nil, apperrors.NotBookable(id, string(existing.Status))
	}

	if update.HasFieldEdits() {
		merged := s.merge(existing, update)
		s.sanitize(merged)
		if err := s.validate(merged); err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, merged); err != nil {
			s.cfg.Log.Error("Failed to update event", "event_id", id, "error", err)
			return nil, mapLookupError(err, id)
		}
	}

	if update.Capacity != nil {
		if _, err := s.adjuster.SetCapacity(ctx, actor, id, update.Capacity); err != nil {
			return nil, err
		}
	}

	if statusChange {
		switch *update.Status {
		case model.EventCancelled:
			if _, err := s.adjuster.CancelEvent(ctx, actor, id); err != nil {
				return nil, err
			}
		default:
			if err := s.repo.UpdateStatus(ctx, id, existing.Status, *update.Status); err != nil {
				if errors.Is(err, eventserrors.ErrInvalidTransition) {
					return nil, apperrors.Conflict("Event status changed concurrently, reload and retry")
				}
				s.cfg.Log.Error("Failed to update event status", "event_id", id, "error", err)
				return nil, mapLookupError(err, id)
			}
			s.cfg.Log.Info("Event status changed",
				"event_id", id,
				"from", existing.Status,
				"to", *update.Status,
				"actor_id", actor.ID,
			)
		}
	}

	s.cfg.Log.Info("Event updated successfully", "event_id", id)
	return s.GetByID(ctx, id)
}

// --- Helpers ---

func (s *eventService) sanitize(e *model.Event) {
	e.Title = sanitizer.NormalizeTitle(e.Title)
	e.Description = sanitizer.NormalizeText(e.Description)
	e.Location = sanitizer.TrimAndNormalize(e.Location)
	e.Price = sanitizer.TrimAndNormalize(e.Price)
	e.Slug = slug.Make(e.Title)
}

func (s *eventService) merge(existing *model.Event, update *model.EventUpdate) *model.Event {
	merged := *existing

	if update.Title != nil {
		merged.Title = *update.Title
	}
	if update.Description != nil {
		merged.Description = *update.Description
	}
	if update.StartTime != nil {
		merged.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		end := *update.EndTime
		merged.EndTime = &end
	}
	if update.ClearEndTime {
		merged.EndTime = nil
	}
	if update.Location != nil {
		merged.Location = *update.Location
	}
	if update.Price != nil {
		merged.Price = *update.Price
	}

	return &merged
}

func (s *eventService) validate(event *model.Event) error {
	if err := s.validator.Validate(event); err != nil {
		s.cfg.Log.Warn("Event validation failed", "error", err)
		return apperrors.Validation("Event validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func mapLookupError(err error, id string) error {
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

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	eventserrors "gather/internal/events/errors"
	"gather/internal/events/validator"
	"gather/pkg/config"
	mongotx "gather/pkg/db/mongo"
	apperrors "gather/pkg/errors"
	"gather/pkg/logger"
	"gather/pkg/model"
)

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*model.Event
	seq    int

	findErr error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[string]*model.Event{}}
}

func (r *fakeEventRepo) put(e *model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.events[e.ID] = &cp
}

func (r *fakeEventRepo) Create(_ context.Context, e *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	e.ID = fmt.Sprintf("%024x", r.seq)
	cp := *e
	r.events[e.ID] = &cp
	return nil
}

func (r *fakeEventRepo) FindByID(_ context.Context, id string) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	e, ok := r.events[id]
	if !ok {
		return nil, eventserrors.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEventRepo) FindAll(_ context.Context, status model.EventStatus, _ int, _ int64) ([]*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Event
	for _, e := range r.events {
		if status == "" || e.Status == status {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) Count(ctx context.Context, status model.EventStatus) (int64, error) {
	all, _ := r.FindAll(ctx, status, 0, 0)
	return int64(len(all)), nil
}

func (r *fakeEventRepo) Update(_ context.Context, e *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.events[e.ID]
	if !ok {
		return eventserrors.ErrNotFound
	}
	cp := *e
	cp.Status = existing.Status
	cp.Capacity = existing.Capacity
	r.events[e.ID] = &cp
	return nil
}

func (r *fakeEventRepo) UpdateStatus(_ context.Context, id string, from, to model.EventStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return eventserrors.ErrNotFound
	}
	if e.Status != from {
		return eventserrors.ErrInvalidTransition
	}
	e.Status = to
	return nil
}

func (r *fakeEventRepo) SetCapacity(_ context.Context, id string, capacity *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return eventserrors.ErrNotFound
	}
	e.Capacity = capacity
	return nil
}

func (r *fakeEventRepo) Touch(ctx context.Context, id string) (*model.Event, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeEventRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type mockAdjuster struct {
	setCapacityFunc func(ctx context.Context, actor model.Actor, eventID string, capacity *int) (*model.Event, error)
	cancelEventFunc func(ctx context.Context, actor model.Actor, eventID string) (*model.Event, error)
}

func (m *mockAdjuster) SetCapacity(ctx context.Context, actor model.Actor, eventID string, capacity *int) (*model.Event, error) {
	if m.setCapacityFunc != nil {
		return m.setCapacityFunc(ctx, actor, eventID, capacity)
	}
	return nil, nil
}

func (m *mockAdjuster) CancelEvent(ctx context.Context, actor model.Actor, eventID string) (*model.Event, error) {
	if m.cancelEventFunc != nil {
		return m.cancelEventFunc(ctx, actor, eventID)
	}
	return nil, nil
}

func createTestConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "info",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
	}
}

func newTestService(repo *fakeEventRepo, adj *mockAdjuster) EventService {
	cfg := createTestConfig()
	return NewEventService(repo, validator.NewEventValidator(cfg.Log), adj, cfg)
}

func seedEvent(repo *fakeEventRepo, status model.EventStatus) *model.Event {
	e := &model.Event{
		ID:        "650000000000000000000001",
		Title:     "Repair Cafe",
		Slug:      "repair-cafe",
		StartTime: time.Date(2026, 12, 5, 10, 0, 0, 0, time.UTC),
		Status:    status,
	}
	repo.put(e)
	return e
}

func TestCreate_ForcesDraftAndSlug(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestService(repo, &mockAdjuster{})

	event := &model.Event{
		Title:     "  Spring   Potluck & Picnic ",
		StartTime: time.Date(2027, 4, 10, 12, 0, 0, 0, time.UTC),
		Status:    model.EventPublished,
	}
	if err := svc.Create(context.Background(), model.Operator("op-1"), event); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if event.Status != model.EventDraft {
		t.Errorf("expected status draft, got %s", event.Status)
	}
	if event.Title != "Spring Potluck & Picnic" {
		t.Errorf("expected normalized title, got %q", event.Title)
	}
	if event.Slug != "spring-potluck-and-picnic" {
		t.Errorf("unexpected slug %q", event.Slug)
	}
	if event.ID == "" {
		t.Error("expected ID to be assigned")
	}
}

func TestCreate_RequesterForbidden(t *testing.T) {
	svc := newTestService(newFakeEventRepo(), &mockAdjuster{})

	err := svc.Create(context.Background(), model.Anonymous(), &model.Event{Title: "Nope", StartTime: time.Now()})
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestCreate_ValidationError(t *testing.T) {
	svc := newTestService(newFakeEventRepo(), &mockAdjuster{})
	start := time.Date(2027, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	err := svc.Create(context.Background(), model.Operator("op-1"), &model.Event{
		Title:     "Time travel",
		StartTime: start,
		EndTime:   &end,
	})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(newFakeEventRepo(), &mockAdjuster{})

	_, err := svc.GetByID(context.Background(), "650000000000000000000009")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestGetByID_StoreUnavailable(t *testing.T) {
	repo := newFakeEventRepo()
	repo.findErr = fmt.Errorf("failed to find event: %w", context.DeadlineExceeded)
	svc := newTestService(repo, &mockAdjuster{})

	_, err := svc.GetByID(context.Background(), "650000000000000000000001")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeStoreUnavailable || !appErr.Retryable() {
		t.Fatalf("expected retryable STORE_UNAVAILABLE, got %v", err)
	}
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	svc := newTestService(newFakeEventRepo(), &mockAdjuster{})

	_, _, err := svc.List(context.Background(), "archived", 10, 0)
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestList_FiltersByStatus(t *testing.T) {
	repo := newFakeEventRepo()
	repo.put(&model.Event{ID: "a", Title: "A", Status: model.EventDraft})
	repo.put(&model.Event{ID: "b", Title: "B", Status: model.EventPublished})
	repo.put(&model.Event{ID: "c", Title: "C", Status: model.EventPublished})
	svc := newTestService(repo, &mockAdjuster{})

	events, total, err := svc.List(context.Background(), model.EventPublished, 10, 0)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if total != 2 || len(events) != 2 {
		t.Errorf("expected 2 published events, got total=%d len=%d", total, len(events))
	}
}

func TestUpdate_Publish(t *testing.T) {
	repo := newFakeEventRepo()
	e := seedEvent(repo, model.EventDraft)
	svc := newTestService(repo, &mockAdjuster{})

	published := model.EventPublished
	got, err := svc.Update(context.Background(), model.Operator("op-1"), e.ID, &model.EventUpdate{Status: &published})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if got.Status != model.EventPublished {
		t.Errorf("expected published, got %s", got.Status)
	}
}

func TestUpdate_InvalidTransition(t *testing.T) {
	repo := newFakeEventRepo()
	e := seedEvent(repo, model.EventPublished)
	svc := newTestService(repo, &mockAdjuster{})

	draft := model.EventDraft
	_, err := svc.Update(context.Background(), model.Operator("op-1"), e.ID, &model.EventUpdate{Status: &draft})
	if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestUpdate_CancelGoesThroughAdjuster(t *testing.T) {
	repo := newFakeEventRepo()
	e := seedEvent(repo, model.EventPublished)

	called := false
	adj := &mockAdjuster{
		cancelEventFunc: func(ctx context.Context, actor model.Actor, eventID string) (*model.Event, error) {
			called = true
			if eventID != e.ID {
				t.Errorf("expected event %s, got %s", e.ID, eventID)
			}
			return nil, repo.UpdateStatus(ctx, eventID, model.EventPublished, model.EventCancelled)
		},
	}
	svc := newTestService(repo, adj)

	cancelled := model.EventCancelled
	got, err := svc.Update(context.Background(), model.Operator("op-1"), e.ID, &model.EventUpdate{Status: &cancelled})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected cancellation to be delegated to the capacity adjuster")
	}
	if got.Status != model.EventCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
}

func TestUpdate_CapacityGoesThroughAdjuster(t *testing.T) {
	repo := newFakeEventRepo()
	e := seedEvent(repo, model.EventPublished)

	var gotCapacity *int
	adj := &mockAdjuster{
		setCapacityFunc: func(ctx context.Context, actor model.Actor, eventID string, capacity *int) (*model.Event, error) {
			gotCapacity = capacity
			return nil, repo.SetCapacity(ctx, eventID, capacity)
		},
	}
	svc := newTestService(repo, adj)

	twelve := 12
	got, err := svc.Update(context.Background(), model.Operator("op-1"), e.ID, &model.EventUpdate{Capacity: &twelve})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if gotCapacity == nil || *gotCapacity != 12 {
		t.Fatalf("expected adjuster to receive capacity 12, got %v", gotCapacity)
	}
	if got.Capacity == nil || *got.Capacity != 12 {
		t.Errorf("expected stored capacity 12, got %v", got.Capacity)
	}
}

func TestUpdate_CapacityOnCancelledEvent(t *testing.T) {
	repo := newFakeEventRepo()
	e := seedEvent(repo, model.EventCancelled)
	adj := &mockAdjuster{
		setCapacityFunc: func(context.Context, model.Actor, string, *int) (*model.Event, error) {
			t.Error("adjuster must not be called for a cancelled event")
			return nil, nil
		},
	}
	svc := newTestService(repo, adj)

	five := 5
	_, err := svc.Update(context.Background(), model.Operator("op-1"), e.ID, &model.EventUpdate{Capacity: &five})
	if !apperrors.HasCode(err, apperrors.CodeNotBookable) {
		t.Fatalf("expected EVENT_NOT_BOOKABLE, got %v", err)
	}
}

func TestUpdate_FieldEditsReslug(t *testing.T) {
	repo := newFakeEventRepo()
	e := seedEvent(repo, model.EventDraft)
	svc := newTestService(repo, &mockAdjuster{})

	title := "Bike Repair Cafe"
	got, err := svc.Update(context.Background(), model.Operator("op-1"), e.ID, &model.EventUpdate{Title: &title})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if got.Slug != "bike-repair-cafe" {
		t.Errorf("expected slug to follow title, got %q", got.Slug)
	}
	if got.Status != model.EventDraft {
		t.Errorf("field edit must not change status, got %s", got.Status)
	}
}

func TestUpdate_RequesterForbidden(t *testing.T) {
	repo := newFakeEventRepo()
	e := seedEvent(repo, model.EventDraft)
	svc := newTestService(repo, &mockAdjuster{})

	title := "Hijacked"
	_, err := svc.Update(context.Background(), model.Anonymous(), e.ID, &model.EventUpdate{Title: &title})
	if !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestUpdate_AdjusterErrorPropagates(t *testing.T) {
	repo := newFakeEventRepo()
	e := seedEvent(repo, model.EventPublished)
	want := apperrors.StoreUnavailable("lock busy", errors.New("timeout"))
	adj := &mockAdjuster{
		setCapacityFunc: func(context.Context, model.Actor, string, *int) (*model.Event, error) {
			return nil, want
		},
	}
	svc := newTestService(repo, adj)

	one := 1
	_, err := svc.Update(context.Background(), model.Operator("op-1"), e.ID, &model.EventUpdate{Capacity: &one})
	if !errors.Is(err, want) {
		t.Fatalf("expected adjuster error, got %v", err)
	}
}

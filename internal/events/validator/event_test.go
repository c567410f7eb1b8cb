package validator

import (
	"errors"
	"testing"
	"time"

	eventserrors "gather/internal/events/errors"
	"gather/pkg/logger"
	"gather/pkg/model"
)

func newTestValidator() *EventValidator {
	return NewEventValidator(logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	}))
}

func intPtr(i int) *int { return &i }

func TestValidate(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2026, 11, 1, 18, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)
	after := start.Add(2 * time.Hour)

	tests := []struct {
		name      string
		event     *model.Event
		wantError bool
	}{
		{
			name: "valid with capacity",
			event: &model.Event{
				Title:     "Board game night",
				StartTime: start,
				EndTime:   &after,
				Capacity:  intPtr(20),
				Status:    model.EventDraft,
			},
		},
		{
			name: "valid unlimited and open ended",
			event: &model.Event{
				Title:     "Open mic",
				StartTime: start,
				Status:    model.EventPublished,
			},
		},
		{
			name: "zero capacity is allowed",
			event: &model.Event{
				Title:     "Closed rehearsal",
				StartTime: start,
				Capacity:  intPtr(0),
				Status:    model.EventDraft,
			},
		},
		{
			name: "end equal to start is allowed",
			event: &model.Event{
				Title:     "Flash meetup",
				StartTime: start,
				EndTime:   &start,
				Status:    model.EventDraft,
			},
		},
		{
			name: "end before start",
			event: &model.Event{
				Title:     "Backwards",
				StartTime: start,
				EndTime:   &before,
				Status:    model.EventDraft,
			},
			wantError: true,
		},
		{
			name: "negative capacity",
			event: &model.Event{
				Title:     "Impossible",
				StartTime: start,
				Capacity:  intPtr(-1),
				Status:    model.EventDraft,
			},
			wantError: true,
		},
		{
			name: "missing title",
			event: &model.Event{
				StartTime: start,
				Status:    model.EventDraft,
			},
			wantError: true,
		},
		{
			name: "unknown status",
			event: &model.Event{
				Title:     "Mystery",
				StartTime: start,
				Status:    "archived",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.event)
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidate_ReportsField(t *testing.T) {
	v := newTestValidator()

	err := v.Validate(&model.Event{StartTime: time.Now(), Status: model.EventDraft})

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 1 || verrs[0].Field != "Title" {
		t.Errorf("expected a single Title error, got %v", verrs)
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()
	end := time.Now()
	published := model.EventPublished
	bogus := model.EventStatus("archived")
	short := "x"

	tests := []struct {
		name      string
		update    *model.EventUpdate
		wantError bool
	}{
		{"empty update", &model.EventUpdate{}, false},
		{"status change", &model.EventUpdate{Status: &published}, false},
		{"unknown status", &model.EventUpdate{Status: &bogus}, true},
		{"title too short", &model.EventUpdate{Title: &short}, true},
		{"negative capacity", &model.EventUpdate{Capacity: intPtr(-3)}, true},
		{"end and clear together", &model.EventUpdate{EndTime: &end, ClearEndTime: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpdate(tt.update)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateUpdate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateTransition(t *testing.T) {
	v := newTestValidator()
	statuses := []model.EventStatus{model.EventDraft, model.EventPublished, model.EventCancelled}
	legal := map[[2]model.EventStatus]bool{
		{model.EventDraft, model.EventPublished}:     true,
		{model.EventDraft, model.EventCancelled}:     true,
		{model.EventPublished, model.EventCancelled}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			err := v.ValidateTransition(from, to)
			if legal[[2]model.EventStatus{from, to}] {
				if err != nil {
					t.Errorf("%s -> %s should be legal, got %v", from, to, err)
				}
				continue
			}
			if !errors.Is(err, eventserrors.ErrInvalidTransition) {
				t.Errorf("%s -> %s should be rejected, got %v", from, to, err)
			}
		}
	}
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "gather/pkg/errors"
	"gather/pkg/logger"
	"gather/pkg/middleware"
	"gather/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockAdminService struct {
	setCapacityFunc func(ctx context.Context, actor model.Actor, eventID string, capacity *int) (*model.Event, error)
	cancelFunc      func(ctx context.Context, actor model.Actor, eventID string) (*model.Event, error)
}

func (m *mockAdminService) SetCapacity(ctx context.Context, actor model.Actor, eventID string, capacity *int) (*model.Event, error) {
	if m.setCapacityFunc != nil {
		return m.setCapacityFunc(ctx, actor, eventID, capacity)
	}
	return &model.Event{ID: eventID, Capacity: capacity}, nil
}

func (m *mockAdminService) CancelEvent(ctx context.Context, actor model.Actor, eventID string) (*model.Event, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, actor, eventID)
	}
	return &model.Event{ID: eventID, Status: model.EventCancelled}, nil
}

func newTestRouter(svc *mockAdminService) *httprouter.Router {
	router := httprouter.New()
	NewAdminHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func operatorRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(middleware.WithActor(req.Context(), model.Operator("op-1")))
}

func TestSetCapacity_Body(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantUnlimited bool
		wantCapacity  int
	}{
		{name: "finite", body: `{"capacity":25}`, wantCapacity: 25},
		{name: "explicit null", body: `{"capacity":null}`, wantUnlimited: true},
		{name: "absent field", body: `{}`, wantUnlimited: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *int
			called := false
			svc := &mockAdminService{
				setCapacityFunc: func(ctx context.Context, actor model.Actor, eventID string, capacity *int) (*model.Event, error) {
					called = true
					got = capacity
					return &model.Event{ID: eventID, Capacity: capacity}, nil
				},
			}

			w := httptest.NewRecorder()
			newTestRouter(svc).ServeHTTP(w, operatorRequest(http.MethodPut, "/api/v1/events/id/e1/capacity", tt.body))

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			if !called {
				t.Fatal("service was not called")
			}
			if tt.wantUnlimited {
				if got != nil {
					t.Errorf("expected nil capacity, got %d", *got)
				}
				return
			}
			if got == nil || *got != tt.wantCapacity {
				t.Errorf("expected capacity %d, got %v", tt.wantCapacity, got)
			}
		})
	}
}

func TestSetCapacity_Forbidden(t *testing.T) {
	svc := &mockAdminService{
		setCapacityFunc: func(ctx context.Context, actor model.Actor, eventID string, capacity *int) (*model.Event, error) {
			if !actor.IsOperator() {
				return nil, apperrors.Forbidden("Only operators can change event capacity")
			}
			return &model.Event{ID: eventID}, nil
		},
	}

	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/events/id/e1/capacity", strings.NewReader(`{"capacity":3}`)))

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestCancelEvent(t *testing.T) {
	var gotID string
	svc := &mockAdminService{
		cancelFunc: func(ctx context.Context, actor model.Actor, eventID string) (*model.Event, error) {
			gotID = eventID
			return &model.Event{ID: eventID, Status: model.EventCancelled}, nil
		},
	}

	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, operatorRequest(http.MethodPost, "/api/v1/events/id/e7/cancel", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if gotID != "e7" {
		t.Errorf("expected event e7, got %s", gotID)
	}
	if !strings.Contains(w.Body.String(), `"status":"cancelled"`) {
		t.Errorf("expected cancelled event in body, got %s", w.Body.String())
	}
}

func TestCancelEvent_AlreadyCancelled(t *testing.T) {
	svc := &mockAdminService{
		cancelFunc: func(ctx context.Context, actor model.Actor, eventID string) (*model.Event, error) {
			return nil, apperrors.InvalidTransition("Event", "cancelled", "cancelled")
		},
	}

	w := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(w, operatorRequest(http.MethodPost, "/api/v1/events/id/e7/cancel", ""))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

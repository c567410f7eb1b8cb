package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gather/pkg/config"
	"gather/pkg/logger"
	"gather/pkg/middleware"
	"gather/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type healthStub struct{}

func (healthStub) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})
}

type thingsStub struct {
	calls atomic.Int32
	actor atomic.Value
}

func (s *thingsStub) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/things", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s.calls.Add(1)
		s.actor.Store(middleware.ActorFromContext(r.Context()))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"t1"}}`))
	})
}

func newTestApp(t *testing.T, rateLimit int) (*Application, *thingsStub) {
	t.Helper()
	cfg := &config.Config{
		Port:              "0",
		RateLimitRequests: rateLimit,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    1 << 20,
		ShutdownTimeout:   time.Second,
		LockBackend:       config.LockBackendMemory,
		Log:               logger.Discard(),
	}
	things := &thingsStub{}
	a := NewApplication(cfg)
	a.SetApp(healthStub{}, things)
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.rateLimiter.Stop()
	})
	return a, things
}

func post(h http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/things", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApplication_HealthBypassesAppStack(t *testing.T) {
	a, _ := newTestApp(t, 1)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestApplication_RejectsNonJSONWrites(t *testing.T) {
	a, things := newTestApp(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/things", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", w.Code)
	}
	if things.calls.Load() != 0 {
		t.Error("handler must not run")
	}
}

func TestApplication_RateLimitsWrites(t *testing.T) {
	a, _ := newTestApp(t, 1)

	if w := post(a.Handler(), ""); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if w := post(a.Handler(), ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
}

func TestApplication_IdempotentReplay(t *testing.T) {
	a, things := newTestApp(t, 10)

	first := post(a.Handler(), "key-1")
	second := post(a.Handler(), "key-1")

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected two 201s, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
	if got := things.calls.Load(); got != 1 {
		t.Errorf("expected handler to run once, ran %d times", got)
	}
}

func TestApplication_AnonymousWithoutToken(t *testing.T) {
	a, things := newTestApp(t, 10)
	post(a.Handler(), "")

	actor, _ := things.actor.Load().(model.Actor)
	if actor.IsOperator() {
		t.Error("request without token must not be an operator")
	}
}

func TestApplication_ShutdownHooksRunInOrder(t *testing.T) {
	a, _ := newTestApp(t, 1)

	var order []string
	a.OnShutdown("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	a.OnShutdown("second", func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	for _, hook := range a.hooks {
		if err := hook.fn(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if strings.Join(order, ",") != "first,second" {
		t.Errorf("unexpected order %v", order)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, nil, testLogger())
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("third request inside the window should be rejected")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other clients have their own budget")
	}
	if !rl.Allow("") {
		t.Error("empty key bypasses the limiter")
	}
}

func TestRateLimit_OnlyWrites(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, nil, testLogger())
	defer rl.Stop()
	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET %d should not be limited, got %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first POST should pass, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second POST should be limited, got %d", w.Code)
	}
}

func TestClientIPExtractor(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	if got := ClientIPExtractor(r); got != "10.0.0.9" {
		t.Errorf("expected remote host, got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIPExtractor(r); got != "203.0.113.7" {
		t.Errorf("expected first forwarded hop, got %q", got)
	}
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"b1"}}`))
	}))

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "abc")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	first := send("/api/v1/events/id/e1/bookings")
	second := send("/api/v1/events/id/e1/bookings")

	if calls != 1 {
		t.Fatalf("handler should run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Errorf("replay mismatch: %d %q", second.Code, second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("expected replay marker header")
	}

	send("/api/v1/events/id/e2/bookings")
	if calls != 2 {
		t.Errorf("same key on another path must not replay, calls=%d", calls)
	}
}

func TestIdempotency_DoesNotCacheFailures(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("Idempotency-Key", "k")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Errorf("failed responses must not be replayed, calls=%d", calls)
	}
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"json post", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"form post", http.MethodPost, `a=b`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"bodiless post", http.MethodPost, "", "", http.StatusOK},
		{"get", http.MethodGet, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	const incoming = "3f2b8c1e-8a4e-4b3a-9a53-0c5f1d2e7b10"
	var seen string
	h := RequestLogging(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != incoming || w.Header().Get(RequestIDHeader) != incoming {
		t.Errorf("expected request id %s, got ctx=%q header=%q", incoming, seen, w.Header().Get(RequestIDHeader))
	}
}

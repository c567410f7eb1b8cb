package http

import (
	"net/http/httptest"
	"strings"
	"testing"

	"gather/pkg/config"
	apperrors "gather/pkg/errors"
)

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int64
		wantErr    bool
	}{
		{"defaults", "", 10, 0, false},
		{"explicit", "?limit=25&offset=50", 25, 50, false},
		{"limit clamped", "?limit=100000", config.DefaultPaginationLimit, 0, false},
		{"negative offset clamped", "?offset=-4", 10, 0, false},
		{"bad limit", "?limit=ten", 0, 0, true},
		{"bad offset", "?offset=x", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/events"+tt.query, nil)
			limit, offset, err := ExtractLimitOffset(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractLimitOffset() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Seats int `json:"seats"`
	}

	var ok body
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"seats":3}`))
	if err := DecodeJSON(r, &ok); err != nil || ok.Seats != 3 {
		t.Fatalf("expected seats 3, got %+v err %v", ok, err)
	}

	var empty body
	r = httptest.NewRequest("POST", "/", strings.NewReader(""))
	if err := DecodeJSON(r, &empty); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty body, got %v", err)
	}

	var unknown body
	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"seats":1,"vip":true}`))
	if err := DecodeJSON(r, &unknown); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for unknown field, got %v", err)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteError(w, apperrors.CapacityExceeded(3, 1)); err != nil {
		t.Fatalf("WriteError() unexpected error: %v", err)
	}
	if w.Code != 409 {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"CAPACITY_EXCEEDED"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	_ = WriteError(w, apperrors.StoreUnavailable("store down", nil))
	if w.Code != 503 || w.Header().Get("Retry-After") == "" {
		t.Errorf("expected 503 with Retry-After, got %d %q", w.Code, w.Header().Get("Retry-After"))
	}
	if !strings.Contains(w.Body.String(), `"retryable":true`) {
		t.Errorf("expected retryable flag, got %s", w.Body.String())
	}
}

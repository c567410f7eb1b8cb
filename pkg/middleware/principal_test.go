package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gather/pkg/logger"
	"gather/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func runPrincipal(t *testing.T, secret, authHeader string) (*httptest.ResponseRecorder, model.Actor) {
	t.Helper()
	var seen model.Actor
	h := Principal(secret, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, seen
}

func TestPrincipal_NoTokenIsAnonymousRequester(t *testing.T) {
	w, actor := runPrincipal(t, testSecret, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if actor.Role != model.RoleRequester || actor.ID != "" {
		t.Errorf("expected anonymous requester, got %+v", actor)
	}
}

func TestPrincipal_RoleClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   model.Role
	}{
		{"operator role", jwt.MapClaims{"sub": "u1", "role": "operator", "exp": exp}, model.RoleOperator},
		{"admin role", jwt.MapClaims{"sub": "u1", "role": "ADMIN", "exp": exp}, model.RoleOperator},
		{"app metadata role", jwt.MapClaims{"sub": "u1", "app_metadata": map[string]any{"role": "admin"}, "exp": exp}, model.RoleOperator},
		{"plain user", jwt.MapClaims{"sub": "u1", "role": "member", "exp": exp}, model.RoleRequester},
		{"no role", jwt.MapClaims{"sub": "u1", "exp": exp}, model.RoleRequester},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), tt.claims)
			w, actor := runPrincipal(t, testSecret, "Bearer "+token)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if actor.Role != tt.want {
				t.Errorf("expected role %s, got %s", tt.want, actor.Role)
			}
			if actor.ID != "u1" {
				t.Errorf("expected subject as actor ID, got %q", actor.ID)
			}
		})
	}
}

func TestPrincipal_RejectsBadTokens(t *testing.T) {
	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "u1", "role": "operator", "exp": time.Now().Add(-time.Minute).Unix(),
	})
	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "u1", "role": "operator"})
	wrongAlg := signToken(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{"sub": "u1", "role": "operator"})

	for name, token := range map[string]string{
		"expired":   expired,
		"wrong key": wrongKey,
		"wrong alg": wrongAlg,
		"garbage":   "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			w, _ := runPrincipal(t, testSecret, "Bearer "+token)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestActorFromContext_Default(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := ActorFromContext(req.Context()); got.Role != model.RoleRequester {
		t.Errorf("expected requester default, got %+v", got)
	}
}

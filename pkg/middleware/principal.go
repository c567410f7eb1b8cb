package middleware

import (
	"context"
	"net/http"
	"strings"

	"gather/pkg/logger"
	"gather/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

const ActorKey contextKey = "actor"

type actorClaims struct {
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	AppMetadata struct {
		Role string `json:"role,omitempty"`
	} `json:"app_metadata"`
	jwt.RegisteredClaims
}

func (c *actorClaims) actor() model.Actor {
	role := c.Role
	if role == "" {
		role = c.AppMetadata.Role
	}

	actor := model.Actor{
		ID:    c.Subject,
		Email: c.Email,
		Role:  model.RoleRequester,
	}
	switch strings.ToLower(role) {
	case "operator", "admin":
		actor.Role = model.RoleOperator
	}
	return actor
}

// Principal resolves the bearer token into a model.Actor on the request
// context. No token means an anonymous requester; a token that fails
// verification is rejected. With an empty secret every caller is anonymous.
func Principal(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := model.Anonymous()

			if raw := bearerToken(r); raw != "" && len(key) > 0 {
				var claims actorClaims
				_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
					return key, nil
				})
				if err != nil {
					log.Warn("Rejected bearer token",
						"request_id", RequestIDFromContext(r.Context()),
						"path", r.URL.Path,
						"error", err,
					)
					writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
					return
				}
				actor = claims.actor()
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// ActorFromContext returns the request's actor, or an anonymous requester
// when the Principal middleware did not run.
func ActorFromContext(ctx context.Context) model.Actor {
	if actor, ok := ctx.Value(ActorKey).(model.Actor); ok {
		return actor
	}
	return model.Anonymous()
}

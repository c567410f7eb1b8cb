package health

import (
	"context"
	"net/http"
	"time"

	httputil "gather/pkg/http"
	"gather/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const readyTimeout = 2 * time.Second

type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Check is one dependency probed by /ready.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

func MongoCheck(client *mongo.Client) Check {
	return Check{
		Name: "database",
		Ping: func(ctx context.Context) error { return client.Ping(ctx, nil) },
	}
}

func RedisCheck(client redis.UniversalClient) Check {
	return Check{
		Name: "redis",
		Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}
}

type Handler struct {
	checks []Check
	log    *logger.Logger
}

func NewHandler(log *logger.Logger, checks ...Check) *Handler {
	return &Handler{
		checks: checks,
		log:    log,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := http.StatusOK
	resp := Response{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.log.Error("Readiness check failed", "check", check.Name, "error", err, "path", r.URL.Path)
			resp.Checks[check.Name] = "error"
			status = http.StatusServiceUnavailable
			resp.Status = "unavailable"
			continue
		}
		resp.Checks[check.Name] = "ok"
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}

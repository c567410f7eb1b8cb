package notify

import (
	"net/http"

	httputil "gather/pkg/http"
	kafkamw "gather/pkg/kafka/middleware"
	"gather/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// StatusHandler exposes the notifier's message counters.
type StatusHandler struct {
	metrics *kafkamw.Metrics
	log     *logger.Logger
}

func NewStatusHandler(metrics *kafkamw.Metrics, log *logger.Logger) *StatusHandler {
	return &StatusHandler{metrics: metrics, log: log}
}

func (h *StatusHandler) Metrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, h.metrics.Snapshot()); err != nil {
		h.log.Error("failed to write success response", "handler", "Metrics", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StatusHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/metrics", h.Metrics)
}

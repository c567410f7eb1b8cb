package handler

import (
	"net/http"

	"gather/internal/admin/service"
	httputil "gather/pkg/http"
	"gather/pkg/logger"
	"gather/pkg/middleware"
	"gather/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AdminHandler struct {
	service service.AdminService
	log     *logger.Logger
}

func NewAdminHandler(service service.AdminService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log,
	}
}

func (h *AdminHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// SetCapacity takes {"capacity": n}; null or an absent field lifts the limit.
func (h *AdminHandler) SetCapacity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var change model.CapacityChange
	if err := httputil.DecodeJSON(r, &change); err != nil {
		h.writeError(w, "SetCapacity", err)
		return
	}

	actor := middleware.ActorFromContext(r.Context())
	event, err := h.service.SetCapacity(r.Context(), actor, ps.ByName("id"), change.Capacity)
	if err != nil {
		h.writeError(w, "SetCapacity", err)
		return
	}

	if err := httputil.WriteSuccess(w, event); err != nil {
		h.log.Error("failed to write success response", "handler", "SetCapacity", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) CancelEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor := middleware.ActorFromContext(r.Context())
	event, err := h.service.CancelEvent(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "CancelEvent", err)
		return
	}

	if err := httputil.WriteSuccess(w, event); err != nil {
		h.log.Error("failed to write success response", "handler", "CancelEvent", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	router.PUT("/api/v1/events/id/:id/capacity", h.SetCapacity)
	router.POST("/api/v1/events/id/:id/cancel", h.CancelEvent)
}

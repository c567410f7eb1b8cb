package handler

import (
	"net/http"

	"gather/internal/events/service"
	httputil "gather/pkg/http"
	"gather/pkg/logger"
	"gather/pkg/middleware"
	"gather/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type EventHandler struct {
	service service.EventService
	log     *logger.Logger
}

func NewEventHandler(service service.EventService, log *logger.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		log:     log,
	}
}

func (h *EventHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var event model.Event
	if err := httputil.DecodeJSON(r, &event); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	actor := middleware.ActorFromContext(r.Context())
	if err := h.service.Create(r.Context(), actor, &event); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, event); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	event, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, event); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	status := model.EventStatus(r.URL.Query().Get("status"))

	events, total, err := h.service.List(r.Context(), status, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, events, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.EventUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	actor := middleware.ActorFromContext(r.Context())
	event, err := h.service.Update(r.Context(), actor, ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, event); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *EventHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/events", h.Create)
	router.GET("/api/v1/events", h.List)
	router.GET("/api/v1/events/id/:id", h.GetByID)
	router.PATCH("/api/v1/events/id/:id", h.Update)
}

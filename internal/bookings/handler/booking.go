package handler

import (
	"net/http"

	"gather/internal/bookings/service"
	httputil "gather/pkg/http"
	"gather/pkg/logger"
	"gather/pkg/middleware"
	"gather/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) Request(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Request", err)
		return
	}

	actor := middleware.ActorFromContext(r.Context())
	booking, err := h.service.RequestBooking(r.Context(), ps.ByName("id"), &req, actor)
	if err != nil {
		h.writeError(w, "Request", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Request", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListByEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByEvent", err)
		return
	}
	status := model.BookingStatus(r.URL.Query().Get("status"))

	bookings, total, err := h.service.ListByEvent(r.Context(), ps.ByName("id"), status, limit, offset)
	if err != nil {
		h.writeError(w, "ListByEvent", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByEvent", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	avail, err := h.service.Availability(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, avail); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ChangeStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var change model.StatusChange
	if err := httputil.DecodeJSON(r, &change); err != nil {
		h.writeError(w, "ChangeStatus", err)
		return
	}

	actor := middleware.ActorFromContext(r.Context())
	booking, err := h.service.ChangeStatus(r.Context(), ps.ByName("id"), change.Status, actor)
	if err != nil {
		h.writeError(w, "ChangeStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "ChangeStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/events/id/:id/bookings", h.Request)
	router.GET("/api/v1/events/id/:id/bookings", h.ListByEvent)
	router.GET("/api/v1/events/id/:id/availability", h.Availability)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id/status", h.ChangeStatus)
}

package handler

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"wellnest/internal/availability/service"
	httputil "wellnest/pkg/http"
	"wellnest/pkg/logger"
)

type SlotHandler struct {
	availability service.AvailabilityService
	log          *logger.Logger
}

func NewSlotHandler(availability service.AvailabilityService, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		availability: availability,
		log:          log,
	}
}

// GetSlots serves GET /api/v1/specialists/:id/slots. A specialist with
// no availability in the window yields an empty list, not an error.
func (h *SlotHandler) GetSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	specialistID := ps.ByName("id")
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	if serviceID == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "'service_id' query parameter is required",
		}); err != nil {
			h.log.Error("failed to write JSON response", "handler", "GetSlots", "operation", "WriteJSON", "error", err)
		}
		return
	}

	q := service.SlotQuery{
		SpecialistID: specialistID,
		ServiceID:    serviceID,
	}

	from, ok, err := httputil.ExtractDate(r, "from")
	if err != nil {
		h.writeError(w, "GetSlots", err)
		return
	}
	if ok {
		q.From = from
	}

	to, ok, err := httputil.ExtractDate(r, "to")
	if err != nil {
		h.writeError(w, "GetSlots", err)
		return
	}
	if ok {
		q.To = to
	}

	if limit, ok, err := httputil.ExtractPositiveInt(r, "limit"); err != nil {
		h.writeError(w, "GetSlots", err)
		return
	} else if ok {
		q.Limit = limit
	}

	if step, ok, err := httputil.ExtractPositiveInt(r, "step_min"); err != nil {
		h.writeError(w, "GetSlots", err)
		return
	} else if ok {
		q.StepMin = step
	}

	slots, err := h.availability.GetSlots(r.Context(), q)
	if err != nil {
		h.writeError(w, "GetSlots", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSlots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/specialists/:id/slots", h.GetSlots)
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"wellnest/internal/schedules/service"
	httputil "wellnest/pkg/http"
	"wellnest/pkg/logger"
	"wellnest/pkg/model"
)

type WorkScheduleHandler struct {
	service service.WorkScheduleService
	log     *logger.Logger
}

func NewWorkScheduleHandler(service service.WorkScheduleService, log *logger.Logger) *WorkScheduleHandler {
	return &WorkScheduleHandler{
		service: service,
		log:     log,
	}
}

func (h *WorkScheduleHandler) Put(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	specialistID := ps.ByName("id")
	if specialistID == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Specialist ID parameter is required",
		}); err != nil {
			h.log.Error("failed to write bad request response", "handler", "Put", "operation", "WriteJSON", "error", err)
		}
		return
	}

	var ws model.WorkSchedule
	if err := json.NewDecoder(r.Body).Decode(&ws); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Put", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Put(r.Context(), specialistID, &ws); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Put", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, ws); err != nil {
		h.log.Error("failed to write success response", "handler", "Put", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WorkScheduleHandler) GetBySpecialistID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	specialistID := ps.ByName("id")
	if specialistID == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Specialist ID parameter is required",
		}); err != nil {
			h.log.Error("failed to write bad request response", "handler", "GetBySpecialistID", "operation", "WriteJSON", "error", err)
		}
		return
	}

	ws, err := h.service.GetBySpecialistID(r.Context(), specialistID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetBySpecialistID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, ws); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBySpecialistID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WorkScheduleHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	schedules, totalCount, err := h.service.GetAll(r.Context(), limit, int(offset))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, schedules, totalCount, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *WorkScheduleHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	specialistID := ps.ByName("id")
	if specialistID == "" {
		if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Specialist ID parameter is required",
		}); err != nil {
			h.log.Error("failed to write bad request response", "handler", "Delete", "operation", "WriteJSON", "error", err)
		}
		return
	}

	if err := h.service.Delete(r.Context(), specialistID); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *WorkScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/schedules", h.GetAll)
	router.PUT("/api/v1/specialists/:id/schedule", h.Put)
	router.GET("/api/v1/specialists/:id/schedule", h.GetBySpecialistID)
	router.DELETE("/api/v1/specialists/:id/schedule", h.Delete)
}

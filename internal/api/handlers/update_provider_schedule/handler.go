package update_provider_schedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/service/schedule"
	"github.com/m04kA/SMC-ConsultationService/internal/service/schedule/models"
)

const (
	msgInvalidProviderID  = "некорректный ID специалиста"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgForbidden          = "доступ запрещен"
	msgProviderNotFound   = "специалист не найден"
	msgScheduleNotFound   = "локальное расписание не задано"
	msgInvalidSchedule    = "некорректное расписание"
)

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PUT /api/v1/providers/{providerId}/schedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, userID, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req models.UpdateScheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /providers/{id}/schedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.UserID = userID

	resp, err := h.service.Update(r.Context(), providerID, &req)
	if err != nil {
		h.respondError(w, "PUT", providerID, err)
		return
	}

	h.logger.Info("PUT /providers/{id}/schedule - provider_id=%d updated", providerID)
	handlers.RespondJSON(w, http.StatusOK, resp)
}

// HandleReset DELETE /api/v1/providers/{providerId}/schedule
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	providerID, userID, ok := h.identify(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Reset(r.Context(), providerID, userID)
	if err != nil {
		h.respondError(w, "DELETE", providerID, err)
		return
	}

	h.logger.Info("DELETE /providers/{id}/schedule - provider_id=%d reset", providerID)
	handlers.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	providerID, ok := handlers.PathInt64(r, "providerId")
	if !ok {
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return 0, 0, false
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return 0, 0, false
	}
	return providerID, userID, true
}

func (h *Handler) respondError(w http.ResponseWriter, method string, providerID int64, err error) {
	switch {
	case errors.Is(err, schedule.ErrProviderNotFound):
		handlers.RespondNotFound(w, msgProviderNotFound)
	case errors.Is(err, schedule.ErrScheduleNotFound):
		handlers.RespondNotFound(w, msgScheduleNotFound)
	case errors.Is(err, schedule.ErrAccessDenied):
		h.logger.Warn("%s /providers/{id}/schedule - Access denied: provider_id=%d", method, providerID)
		handlers.RespondForbidden(w, msgForbidden)
	case errors.Is(err, schedule.ErrInvalidInput):
		handlers.RespondBadRequest(w, msgInvalidSchedule)
	default:
		h.logger.Error("%s /providers/{id}/schedule - Failed: provider_id=%d, error=%v", method, providerID, err)
		handlers.RespondInternalError(w)
	}
}

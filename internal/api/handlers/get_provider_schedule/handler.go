package get_provider_schedule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/service/schedule"
)

const (
	msgInvalidProviderID = "некорректный ID специалиста"
	msgProviderNotFound  = "специалист не найден"
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

// Handle GET /api/v1/providers/{providerId}/schedule
// Публичный эндпоинт
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, ok := handlers.PathInt64(r, "providerId")
	if !ok {
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	resp, err := h.service.Get(r.Context(), providerID)
	if err != nil {
		if errors.Is(err, schedule.ErrProviderNotFound) {
			handlers.RespondNotFound(w, msgProviderNotFound)
			return
		}
		h.logger.Error("GET /providers/{id}/schedule - Failed: provider_id=%d, error=%v", providerID, err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}

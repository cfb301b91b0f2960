package get_availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	getAvailability "github.com/m04kA/SMC-ConsultationService/internal/usecase/get_availability"
)

const (
	msgInvalidProviderID = "некорректный ID специалиста"
	msgInvalidDate       = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgMissingUserID     = "отсутствует ID пользователя"
	msgProviderNotFound  = "специалист не найден"
)

type Handler struct {
	useCase GetAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/availability?date=YYYY-MM-DD
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, ok := handlers.PathInt64(r, "providerId")
	if !ok {
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	date, err := time.Parse(domain.DateFormat, r.URL.Query().Get("date"))
	if err != nil {
		h.logger.Warn("GET /providers/{id}/availability - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailability.Request{
		ClientID:   userID,
		ProviderID: providerID,
		Date:       date,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrProviderNotFound):
			handlers.RespondNotFound(w, msgProviderNotFound)
		case errors.Is(err, getAvailability.ErrInvalidInput):
			handlers.RespondBadRequest(w, err.Error())
		default:
			h.logger.Error("GET /providers/{id}/availability - Failed: provider_id=%d, error=%v", providerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}

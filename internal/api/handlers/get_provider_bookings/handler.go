package get_provider_bookings

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/service/bookings"
	"github.com/m04kA/SMC-ConsultationService/internal/service/bookings/models"
)

const (
	msgInvalidProviderID = "некорректный ID специалиста"
	msgInvalidQuery      = "некорректные параметры фильтра"
	msgMissingUserID     = "отсутствует ID пользователя"
	msgForbidden         = "доступ запрещен"
	msgProviderNotFound  = "специалист не найден"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/bookings?date=&startDate=&endDate=&status=&includeInactive=
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

	req := &models.GetProviderBookingsRequest{UserID: userID, ProviderID: providerID}
	if err := parseQuery(r.URL.Query(), req); err != nil {
		h.logger.Warn("GET /providers/{id}/bookings - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	list, err := h.service.GetProviderBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /providers/{id}/bookings - Access denied: provider_id=%d, user_id=%d", providerID, userID)
			handlers.RespondForbidden(w, msgForbidden)
		case errors.Is(err, bookings.ErrProviderNotFound):
			handlers.RespondNotFound(w, msgProviderNotFound)
		case errors.Is(err, bookings.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidQuery)
		default:
			h.logger.Error("GET /providers/{id}/bookings - Failed: provider_id=%d, error=%v", providerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, list)
}

package get_client_bookings

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/service/bookings"
	"github.com/m04kA/SMC-ConsultationService/internal/service/bookings/models"
)

const (
	msgInvalidClientID = "некорректный ID клиента"
	msgMissingUserID   = "отсутствует ID пользователя"
	msgForbidden       = "доступ запрещен"
	msgInvalidStatus   = "некорректный статус"
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

// Handle GET /api/v1/clients/{clientId}/bookings?status=
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := handlers.PathInt64(r, "clientId")
	if !ok {
		handlers.RespondBadRequest(w, msgInvalidClientID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	req := &models.GetClientBookingsRequest{UserID: userID, ClientID: clientID}
	if status := r.URL.Query().Get("status"); status != "" {
		req.Status = &status
	}

	list, err := h.service.GetClientBookings(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("GET /clients/{id}/bookings - Access denied: client_id=%d, user_id=%d", clientID, userID)
			handlers.RespondForbidden(w, msgForbidden)
		case errors.Is(err, bookings.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidStatus)
		default:
			h.logger.Error("GET /clients/{id}/bookings - Failed: client_id=%d, error=%v", clientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, list)
}

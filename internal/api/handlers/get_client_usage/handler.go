package get_client_usage

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/service/subscriptions"
)

const (
	msgInvalidClientID = "некорректный ID клиента"
	msgMissingUserID   = "отсутствует ID пользователя"
	msgForbidden       = "доступ запрещен"
)

type Handler struct {
	service SubscriptionService
	logger  Logger
}

func NewHandler(service SubscriptionService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/clients/{clientId}/usage
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

	usage, err := h.service.GetUsage(r.Context(), clientID, userID)
	if err != nil {
		switch {
		case errors.Is(err, subscriptions.ErrAccessDenied):
			handlers.RespondForbidden(w, msgForbidden)
		case errors.Is(err, subscriptions.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidClientID)
		default:
			h.logger.Error("GET /clients/{id}/usage - Failed: client_id=%d, error=%v", clientID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, usage)
}

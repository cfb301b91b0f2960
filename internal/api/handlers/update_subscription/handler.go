package update_subscription

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/service/subscriptions"
	"github.com/m04kA/SMC-ConsultationService/internal/service/subscriptions/models"
)

const (
	msgInvalidClientID    = "некорректный ID клиента"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnknownTier        = "неизвестный тариф"
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

// Handle PUT /api/v1/clients/{clientId}/subscription
// Вызывается биллингом при смене тарифа: {"tier": "basic"}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := handlers.PathInt64(r, "clientId")
	if !ok {
		handlers.RespondBadRequest(w, msgInvalidClientID)
		return
	}

	var req models.SetTierRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /clients/{id}/subscription - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	usage, err := h.service.SetTier(r.Context(), clientID, &req)
	if err != nil {
		if errors.Is(err, subscriptions.ErrInvalidInput) {
			handlers.RespondBadRequest(w, msgUnknownTier)
			return
		}
		h.logger.Error("PUT /clients/{id}/subscription - Failed: client_id=%d, error=%v", clientID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("PUT /clients/{id}/subscription - client_id=%d tier=%s", clientID, usage.Tier)
	handlers.RespondJSON(w, http.StatusOK, usage)
}

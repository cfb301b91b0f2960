package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ConsultationService/internal/api/handlers"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	createBooking "github.com/m04kA/SMC-ConsultationService/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody    = "некорректное тело запроса"
	msgInvalidDateOrTime     = "некорректная дата (YYYY-MM-DD) или время (HH:MM)"
	msgMissingUserID         = "отсутствует ID пользователя"
	msgClientMismatch        = "clientId не совпадает с пользователем"
	msgInvalidInput          = "некорректные данные бронирования"
	msgInvalidSlot           = "время не совпадает с сеткой слотов или уже прошло"
	msgProviderNotFound      = "специалист не найден"
	msgAlreadyBookedBySelf   = "вы уже записаны к этому специалисту на это время"
	msgConflictsWithOther    = "у вас уже есть консультация с другим специалистом на это время"
	msgTakenByOthers         = "это время уже занято"
	msgQuotaExceeded         = "лимит консультаций по тарифу исчерпан"
	msgAdvanceWindowExceeded = "тариф не позволяет записаться так далеко вперед"
	msgPaymentRefConflict    = "платеж уже использован для другой записи"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// clientId из тела допускается только свой
	if req.ClientID != 0 && req.ClientID != userID {
		h.logger.Warn("POST /bookings - Client mismatch: user_id=%d, client_id=%d", userID, req.ClientID)
		handlers.RespondForbidden(w, msgClientMismatch)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(userID)
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		h.respondError(w, userID, req.ProviderID, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}

	h.logger.Info("POST /bookings - Booking ready: booking_id=%d, client_id=%d, replayed=%t",
		result.Booking.ID, userID, result.Replayed)
	handlers.RespondJSON(w, status, FromUseCaseResponse(result))
}

func (h *Handler) respondError(w http.ResponseWriter, userID, providerID int64, err error) {
	var (
		slotErr  *createBooking.SlotUnavailableError
		quotaErr *createBooking.QuotaError
	)

	switch {
	case errors.As(err, &slotErr):
		h.logger.Warn("POST /bookings - Slot unavailable: client_id=%d, provider_id=%d, outcome=%s",
			userID, providerID, slotErr.Outcome)
		details := map[string]interface{}{"time": slotErr.Time}
		msg := msgTakenByOthers
		switch {
		case errors.Is(err, createBooking.ErrAlreadyBookedBySelf):
			msg = msgAlreadyBookedBySelf
		case errors.Is(err, createBooking.ErrConflictsWithOtherProvider):
			msg = msgConflictsWithOther
			details["conflictingProviderId"] = slotErr.ConflictingProviderID
			details["conflictingProviderName"] = slotErr.ConflictingProviderName
		}
		handlers.RespondJSON(w, http.StatusConflict, ConflictResponse{
			ErrorKind: string(slotErr.Outcome),
			Message:   msg,
			Details:   details,
		})

	case errors.As(err, &quotaErr):
		h.logger.Warn("POST /bookings - Quota: client_id=%d, %v", userID, err)
		kind, msg := "quota_exceeded", msgQuotaExceeded
		if errors.Is(err, createBooking.ErrAdvanceWindowExceeded) {
			kind, msg = "advance_window_exceeded", msgAdvanceWindowExceeded
		}
		handlers.RespondJSON(w, http.StatusConflict, ConflictResponse{
			ErrorKind: kind,
			Message:   msg,
			Details: map[string]interface{}{
				"tier":           quotaErr.Tier,
				"used":           quotaErr.Used,
				"limit":          quotaErr.Limit,
				"maxAdvanceDays": quotaErr.MaxAdvanceDays,
			},
		})

	case errors.Is(err, createBooking.ErrPaymentRefConflict):
		h.logger.Warn("POST /bookings - Payment ref conflict: client_id=%d", userID)
		handlers.RespondJSON(w, http.StatusConflict, ConflictResponse{
			ErrorKind: "payment_ref_conflict",
			Message:   msgPaymentRefConflict,
		})

	case errors.Is(err, createBooking.ErrInvalidSlot):
		h.logger.Warn("POST /bookings - Invalid slot: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlot)

	case errors.Is(err, createBooking.ErrInvalidInput):
		h.logger.Warn("POST /bookings - Invalid input: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInput)

	case errors.Is(err, createBooking.ErrProviderNotFound):
		h.logger.Warn("POST /bookings - Provider not found: provider_id=%d", providerID)
		handlers.RespondNotFound(w, msgProviderNotFound)

	default:
		h.logger.Error("POST /bookings - Failed to create booking: client_id=%d, provider_id=%d, error=%v",
			userID, providerID, err)
		handlers.RespondInternalError(w)
	}
}

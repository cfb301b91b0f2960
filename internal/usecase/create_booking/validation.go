package create_booking

import (
	"fmt"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidInput)
	}

	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}

	if req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}

	if !req.ConsultationType.IsValid() {
		return fmt.Errorf("%w: unknown consultationType %q", ErrInvalidInput, req.ConsultationType)
	}

	if req.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	if req.PaymentRef == "" {
		return fmt.Errorf("%w: paymentRef is required", ErrInvalidInput)
	}

	if len(req.PaymentRef) > domain.MaxPaymentRefLength {
		return fmt.Errorf("%w: paymentRef exceeds %d characters", ErrInvalidInput, domain.MaxPaymentRefLength)
	}

	return nil
}

package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	bookingModels "github.com/m04kA/SMC-ConsultationService/internal/service/bookings/models"
	createBooking "github.com/m04kA/SMC-ConsultationService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ClientID         int64   `json:"clientId,omitempty"` // должен совпадать с X-User-ID
	ProviderID       int64   `json:"providerId"`
	Date             string  `json:"date"` // "2026-10-18"
	Time             string  `json:"time"` // "14:00"
	ConsultationType string  `json:"consultationType"`
	Amount           float64 `json:"amount"`
	PaymentRef       string  `json:"paymentRef"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	Booking  *bookingModels.BookingResponse `json:"booking"`
	Replayed bool                           `json:"replayed"`
	Usage    *UsageInfo                     `json:"usage,omitempty"`
}

// UsageInfo использование тарифа после записи
type UsageInfo struct {
	Tier  string `json:"tier"`
	Used  int    `json:"used"`
	Limit *int   `json:"limit"` // nil - без ограничений
}

// ConflictResponse тело 409 ответа
type ConflictResponse struct {
	ErrorKind string                 `json:"errorKind"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(clientID int64) (*createBooking.Request, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}

	startTime, err := types.NewTimeStringFromString(r.Time)
	if err != nil {
		return nil, fmt.Errorf("time: %w", err)
	}

	return &createBooking.Request{
		ClientID:         clientID,
		ProviderID:       r.ProviderID,
		Date:             date,
		StartTime:        startTime,
		ConsultationType: domain.ConsultationType(r.ConsultationType),
		Amount:           r.Amount,
		PaymentRef:       r.PaymentRef,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	out := &CreateBookingResponse{
		Booking:  bookingModels.FromDomainBooking(resp.Booking),
		Replayed: resp.Replayed,
	}
	if !resp.Replayed {
		out.Usage = &UsageInfo{Tier: string(resp.Tier), Used: resp.Used}
		if resp.Limit != domain.Unlimited {
			limit := resp.Limit
			out.Usage.Limit = &limit
		}
	}
	return out
}

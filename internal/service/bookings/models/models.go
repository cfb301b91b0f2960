package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	UserID             int64   `json:"-"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// UpdateStatusRequest запрос на смену статуса (confirmed / completed)
type UpdateStatusRequest struct {
	UserID int64  `json:"-"`
	Status string `json:"status"`
}

// GetClientBookingsRequest запрос истории клиента
type GetClientBookingsRequest struct {
	UserID   int64
	ClientID int64
	Status   *string
}

// GetProviderBookingsRequest запрос расписания провайдера
type GetProviderBookingsRequest struct {
	UserID          int64
	ProviderID      int64
	StartDate       *time.Time // Начало периода (опционально)
	EndDate         *time.Time // Конец периода (опционально)
	Status          *string    // Фильтр по статусу (опционально)
	IncludeInactive bool       // Включить отменённые и завершенные
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetProviderBookingsRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	providerID := r.ProviderID
	filter := domain.BookingsFilter{
		ProviderID:      &providerID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IncludeInactive: r.IncludeInactive,
	}

	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID                 int64      `json:"id"`
	ClientID           int64      `json:"clientId"`
	ProviderID         int64      `json:"providerId"`
	ProviderName       string     `json:"providerName"`
	BookingDate        string     `json:"bookingDate"` // "2026-10-18"
	StartTime          string     `json:"startTime"`   // "14:00"
	DurationMinutes    int        `json:"durationMinutes"`
	ConsultationType   string     `json:"consultationType"`
	Status             string     `json:"status"`
	Amount             float64    `json:"amount"`
	PaymentRef         string     `json:"paymentRef"`
	PeriodKey          string     `json:"periodKey"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// BookingListResponse список бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}
	return &BookingResponse{
		ID:                 b.ID,
		ClientID:           b.ClientID,
		ProviderID:         b.ProviderID,
		ProviderName:       b.ProviderName,
		BookingDate:        b.BookingDate.Format(domain.DateFormat),
		StartTime:          b.StartTime.String(),
		DurationMinutes:    b.DurationMinutes,
		ConsultationType:   string(b.ConsultationType),
		Status:             string(b.Status),
		Amount:             b.Amount,
		PaymentRef:         b.PaymentRef,
		PeriodKey:          b.PeriodKey,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	list := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		list = append(list, *FromDomainBooking(b))
	}
	return &BookingListResponse{Bookings: list, Total: len(list)}
}

// ToDomainBookingStatus конвертирует строку в статус
func ToDomainBookingStatus(s string) (domain.BookingStatus, error) {
	status := domain.BookingStatus(s)
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

package events

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// Event types of the booking lifecycle
const (
	TypeBookingCreated   = "booking.created"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCompleted = "booking.completed"
	TypeBookingCancelled = "booking.cancelled"
)

// BookingEvent сообщение о смене состояния бронирования
type BookingEvent struct {
	Type             string           `json:"type"`
	BookingID        int64            `json:"bookingId"`
	ClientID         int64            `json:"clientId"`
	ProviderID       int64            `json:"providerId"`
	Date             string           `json:"date"`
	Time             types.TimeString `json:"time"`
	ConsultationType string           `json:"consultationType"`
	Status           string           `json:"status"`
	OccurredAt       time.Time        `json:"occurredAt"`
}

// NewBookingEvent собирает событие из бронирования
func NewBookingEvent(eventType string, b *domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:             eventType,
		BookingID:        b.ID,
		ClientID:         b.ClientID,
		ProviderID:       b.ProviderID,
		Date:             b.BookingDate.Format(domain.DateFormat),
		Time:             b.StartTime,
		ConsultationType: string(b.ConsultationType),
		Status:           string(b.Status),
		OccurredAt:       at,
	}
}

// Publisher публикует события бронирований
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Noop используется, когда kafka выключена
type Noop struct{}

func (Noop) Publish(context.Context, BookingEvent) error { return nil }
func (Noop) Close() error                                { return nil }

package domain

import (
	"time"

	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// ConsultationType online или очная консультация
type ConsultationType string

const (
	ConsultationOnline   ConsultationType = "online"
	ConsultationInPerson ConsultationType = "in_person"
)

// IsValid returns true for known consultation types
func (c ConsultationType) IsValid() bool {
	return c == ConsultationOnline || c == ConsultationInPerson
}

// Booking represents a consultation booking.
// ProviderID, BookingDate and StartTime never change after creation:
// moving a consultation is a cancel + new booking.
type Booking struct {
	ID               int64
	ClientID         int64
	ProviderID       int64
	BookingDate      time.Time
	StartTime        types.TimeString
	DurationMinutes  int
	ConsultationType ConsultationType
	Status           BookingStatus
	Amount           float64
	PaymentRef       string // idempotency key from checkout
	PeriodKey        string // quota period the booking was counted in

	// Denormalized for conflict explanations
	ProviderName string

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true while the booking holds its slot and quota unit
func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// IsReplayable returns true if a retried submission with the same payment
// reference must return this booking instead of creating a new one
func (b *Booking) IsReplayable() bool {
	return b.Status != StatusCancelled
}

// IsActive returns true for pending and confirmed
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// IsValid returns true for known statuses
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks the lifecycle pending → confirmed → completed, pending|confirmed → cancelled
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	default:
		return false
	}
}

// ClientSlot active booking of a client on a given day, as seen by the availability index
type ClientSlot struct {
	StartTime    types.TimeString
	ProviderID   int64
	ProviderName string
}

// BookingsFilter фильтр для выборки бронирований
type BookingsFilter struct {
	ClientID        *int64
	ProviderID      *int64
	StartDate       *time.Time
	EndDate         *time.Time
	Status          *BookingStatus
	IncludeInactive bool // включать отмененные и завершенные
}

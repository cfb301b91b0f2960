package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// BookingRepository бронирования в памяти
type BookingRepository struct {
	store *Store
}

// Create проверяет те же уникальные ограничения, что и индексы postgres
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	err := r.store.locked(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if b.Status != domain.StatusCancelled && b.PaymentRef == booking.PaymentRef {
				return bookingRepo.ErrDuplicatePaymentRef
			}
		}
		for _, b := range st.bookings {
			if !b.IsActive() || !sameDay(b.BookingDate, booking.BookingDate) || !b.StartTime.Equal(booking.StartTime) {
				continue
			}
			if b.ProviderID == booking.ProviderID {
				return bookingRepo.ErrSlotTaken
			}
			if b.ClientID == booking.ClientID {
				return bookingRepo.ErrClientSlotTaken
			}
		}

		now := r.store.now()
		st.nextID++
		booking.ID = st.nextID
		booking.CreatedAt = now
		booking.UpdatedAt = now
		st.bookings[booking.ID] = *booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.store.locked(ctx, func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return bookingRepo.ErrBookingNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *BookingRepository) GetByPaymentRef(ctx context.Context, paymentRef string) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.store.locked(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if b.PaymentRef == paymentRef && b.Status != domain.StatusCancelled {
				found := b
				out = &found
				return nil
			}
		}
		return bookingRepo.ErrBookingNotFound
	})
	return out, err
}

func (r *BookingRepository) GetWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	out := make([]*domain.Booking, 0)
	err := r.store.locked(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if !matches(b, filter) {
				continue
			}
			found := b
			out = append(out, &found)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	singleDay := filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.Equal(*filter.EndDate)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !sameDay(a.BookingDate, b.BookingDate) {
			if singleDay {
				return a.BookingDate.Before(b.BookingDate)
			}
			return a.BookingDate.After(b.BookingDate)
		}
		if singleDay {
			return a.StartTime.IsBefore(b.StartTime)
		}
		return a.StartTime.IsAfter(b.StartTime)
	})
	return out, nil
}

func (r *BookingRepository) BookedSlotsForProvider(ctx context.Context, providerID int64, date time.Time) ([]types.TimeString, error) {
	slots := make([]types.TimeString, 0)
	err := r.store.locked(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if b.ProviderID == providerID && b.IsActive() && sameDay(b.BookingDate, date) {
				slots = append(slots, b.StartTime)
			}
		}
		return nil
	})
	sort.Slice(slots, func(i, j int) bool { return slots[i].IsBefore(slots[j]) })
	return slots, err
}

func (r *BookingRepository) BookedSlotsForClient(ctx context.Context, clientID int64, date time.Time) ([]domain.ClientSlot, error) {
	slots := make([]domain.ClientSlot, 0)
	err := r.store.locked(ctx, func(st *state) error {
		for _, b := range st.bookings {
			if b.ClientID == clientID && b.IsActive() && sameDay(b.BookingDate, date) {
				slots = append(slots, domain.ClientSlot{StartTime: b.StartTime, ProviderID: b.ProviderID, ProviderName: b.ProviderName})
			}
		}
		return nil
	})
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.IsBefore(slots[j].StartTime) })
	return slots, err
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) error {
	return r.store.locked(ctx, func(st *state) error {
		b, ok := st.bookings[id]
		if !ok || b.Status != from {
			return bookingRepo.ErrStatusChanged
		}
		b.Status = to
		b.UpdatedAt = r.store.now()
		st.bookings[id] = b
		return nil
	})
}

func (r *BookingRepository) Cancel(ctx context.Context, id int64, reason *string, cancelledAt time.Time) error {
	return r.store.locked(ctx, func(st *state) error {
		b, ok := st.bookings[id]
		if !ok || !b.IsActive() {
			return bookingRepo.ErrStatusChanged
		}
		b.Status = domain.StatusCancelled
		b.CancellationReason = reason
		b.CancelledAt = &cancelledAt
		b.UpdatedAt = r.store.now()
		st.bookings[id] = b
		return nil
	})
}

func matches(b domain.Booking, f domain.BookingsFilter) bool {
	if f.ClientID != nil && b.ClientID != *f.ClientID {
		return false
	}
	if f.ProviderID != nil && b.ProviderID != *f.ProviderID {
		return false
	}
	if f.StartDate != nil && dayBefore(b.BookingDate, *f.StartDate) {
		return false
	}
	if f.EndDate != nil && dayBefore(*f.EndDate, b.BookingDate) {
		return false
	}
	if f.Status != nil {
		return b.Status == *f.Status
	}
	return f.IncludeInactive || b.IsActive()
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// dayBefore true, если календарная дата a раньше b
func dayBefore(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	if y1 != y2 {
		return y1 < y2
	}
	if m1 != m2 {
		return m1 < m2
	}
	return d1 < d2
}

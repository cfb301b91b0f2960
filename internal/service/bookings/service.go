package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ConsultationService/internal/integrations/providerdirectory"
	"github.com/m04kA/SMC-ConsultationService/internal/service/bookings/models"
)

type realTime struct{}

func (realTime) Now() time.Time { return time.Now() }

// Service сервис жизненного цикла бронирований
type Service struct {
	bookingRepo     BookingRepository
	usageRepo       UsageRepository
	directory       ProviderDirectory
	txManager       TransactionManager
	publisher       EventPublisher
	releaseOnCancel bool
	timeProvider    TimeProvider
	logger          Logger
}

// NewService создает новый экземпляр сервиса бронирований.
// releaseOnCancel: отмена возвращает единицу квоты в периоде записи.
func NewService(
	bookingRepo BookingRepository,
	usageRepo UsageRepository,
	directory ProviderDirectory,
	txManager TransactionManager,
	publisher EventPublisher,
	releaseOnCancel bool,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:     bookingRepo,
		usageRepo:       usageRepo,
		directory:       directory,
		txManager:       txManager,
		publisher:       publisher,
		releaseOnCancel: releaseOnCancel,
		timeProvider:    realTime{},
		logger:          logger,
	}
}

// WithTimeProvider подменяет часы (для тестов)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID получает бронирование по ID
// Видеть запись может клиент-владелец или аккаунт провайдера
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, userID)

	booking, err := s.getBooking(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if booking.ClientID != userID {
		if err := s.checkProviderAccess(ctx, booking.ProviderID, userID); err != nil {
			s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
			return nil, err
		}
	}

	return models.FromDomainBooking(booking), nil
}

// GetClientBookings получает историю клиента
// Опционально фильтрует по статусу
func (s *Service) GetClientBookings(ctx context.Context, req *models.GetClientBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetClientBookings: fetching bookings for client=%d, status=%v", req.ClientID, req.Status)

	if req.UserID != req.ClientID {
		s.logger.Warn("GetClientBookings: user=%d cannot read history of client=%d", req.UserID, req.ClientID)
		return nil, ErrAccessDenied
	}

	clientID := req.ClientID
	filter := domain.BookingsFilter{ClientID: &clientID, IncludeInactive: true}
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetClientBookings: invalid status=%s", *req.Status)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		filter.Status = &status
	}

	bookings, err := s.bookingRepo.GetWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetClientBookings: repository error for client=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: GetClientBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetClientBookings: fetched %d bookings for client=%d", len(bookings), req.ClientID)
	return models.FromDomainBookingList(bookings), nil
}

// GetProviderBookings получает записи провайдера с фильтрацией
// по периоду и статусу. Доступно только аккаунту провайдера.
func (s *Service) GetProviderBookings(ctx context.Context, req *models.GetProviderBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetProviderBookings: fetching bookings for provider=%d, user=%d", req.ProviderID, req.UserID)

	if err := s.checkProviderAccess(ctx, req.ProviderID, req.UserID); err != nil {
		return nil, err
	}

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, fmt.Errorf("%w: endDate is before startDate", ErrInvalidInput)
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetProviderBookings: invalid filter for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.GetWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetProviderBookings: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: GetProviderBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetProviderBookings: fetched %d bookings for provider=%d", len(bookings), req.ProviderID)
	return models.FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование
// Отменить может клиент-владелец или аккаунт провайдера.
// Слот освобождается сразу; единица квоты возвращается в период записи, если это включено.
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d by user=%d", bookingID, req.UserID)

	if req.CancellationReason != nil && len(*req.CancellationReason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: cancellation reason exceeds %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	booking, err := s.getBooking(ctx, "Cancel", bookingID)
	if err != nil {
		return nil, err
	}

	if booking.ClientID != req.UserID {
		if err := s.checkProviderAccess(ctx, booking.ProviderID, req.UserID); err != nil {
			s.logger.Warn("Cancel: access denied for user=%d to cancel booking id=%d", req.UserID, bookingID)
			return nil, err
		}
	}

	now := s.timeProvider.Now()
	var cancelled *domain.Booking

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		// Перечитываем внутри транзакции: статус мог измениться
		current, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			return err
		}
		if !current.CanBeCancelled() {
			return ErrCannotCancel
		}

		// UPDATE защищен условием на статус: конкурентная отмена получит ErrStatusChanged
		// и не вернет единицу квоты второй раз
		if err := s.bookingRepo.Cancel(txCtx, bookingID, req.CancellationReason, now); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusChanged) {
				return ErrCannotCancel
			}
			return err
		}

		if s.releaseOnCancel && current.PeriodKey != "" {
			if err := s.usageRepo.Decrement(txCtx, current.ClientID, current.PeriodKey); err != nil {
				return err
			}
		}

		current.Status = domain.StatusCancelled
		current.CancellationReason = req.CancellationReason
		current.CancelledAt = &now
		current.UpdatedAt = now
		cancelled = current
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCannotCancel):
			s.logger.Warn("Cancel: booking id=%d cannot be cancelled", bookingID)
			return nil, ErrCannotCancel
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			return nil, ErrBookingNotFound
		default:
			s.logger.Error("Cancel: transaction error for booking id=%d: %v", bookingID, err)
			return nil, fmt.Errorf("%w: Cancel - transaction error: %v", ErrInternal, err)
		}
	}

	s.logger.Info("Cancel: cancelled booking id=%d (quota released: %t)", bookingID, s.releaseOnCancel)
	s.publish(ctx, events.TypeBookingCancelled, cancelled, now)

	return models.FromDomainBooking(cancelled), nil
}

// UpdateStatus подтверждает или завершает консультацию
// Доступно только аккаунту провайдера
func (s *Service) UpdateStatus(ctx context.Context, bookingID int64, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("UpdateStatus: updating booking id=%d to status=%s by user=%d", bookingID, req.Status, req.UserID)

	next, err := models.ToDomainBookingStatus(req.Status)
	if err != nil || (next != domain.StatusConfirmed && next != domain.StatusCompleted) {
		s.logger.Warn("UpdateStatus: invalid status=%s", req.Status)
		return nil, fmt.Errorf("%w: status must be confirmed or completed", ErrInvalidInput)
	}

	booking, err := s.getBooking(ctx, "UpdateStatus", bookingID)
	if err != nil {
		return nil, err
	}

	if err := s.checkProviderAccess(ctx, booking.ProviderID, req.UserID); err != nil {
		s.logger.Warn("UpdateStatus: access denied for user=%d to booking id=%d", req.UserID, bookingID)
		return nil, err
	}

	now := s.timeProvider.Now()
	var updated *domain.Booking

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		current, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
		}
		if err := s.bookingRepo.UpdateStatus(txCtx, bookingID, current.Status, next); err != nil {
			if errors.Is(err, bookingRepo.ErrStatusChanged) {
				return fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, current.Status)
			}
			return err
		}
		current.Status = next
		current.UpdatedAt = now
		updated = current
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTransition):
			s.logger.Warn("UpdateStatus: %v", err)
			return nil, err
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			return nil, ErrBookingNotFound
		default:
			s.logger.Error("UpdateStatus: transaction error for booking id=%d: %v", bookingID, err)
			return nil, fmt.Errorf("%w: UpdateStatus - transaction error: %v", ErrInternal, err)
		}
	}

	eventType := events.TypeBookingConfirmed
	if next == domain.StatusCompleted {
		eventType = events.TypeBookingCompleted
	}
	s.publish(ctx, eventType, updated, now)

	s.logger.Info("UpdateStatus: booking id=%d is now %s", bookingID, next)
	return models.FromDomainBooking(updated), nil
}

func (s *Service) getBooking(ctx context.Context, op string, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

// checkProviderAccess проверяет, что userID - аккаунт провайдера
func (s *Service) checkProviderAccess(ctx context.Context, providerID int64, userID int64) error {
	provider, err := s.directory.GetProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, providerdirectory.ErrProviderNotFound) {
			return ErrProviderNotFound
		}
		s.logger.Error("checkProviderAccess: failed to get provider id=%d: %v", providerID, err)
		return fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}
	if provider.UserID != userID {
		return ErrAccessDenied
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, b *domain.Booking, at time.Time) {
	if err := s.publisher.Publish(ctx, events.NewBookingEvent(eventType, b, at)); err != nil {
		s.logger.Error("publish: failed to publish %s for booking id=%d: %v", eventType, b.ID, err)
	}
}

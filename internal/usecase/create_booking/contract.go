package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/events"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByPaymentRef(ctx context.Context, paymentRef string) (*domain.Booking, error)
	BookedSlotsForProvider(ctx context.Context, providerID int64, date time.Time) ([]types.TimeString, error)
	BookedSlotsForClient(ctx context.Context, clientID int64, date time.Time) ([]domain.ClientSlot, error)
}

// UsageRepository интерфейс репозитория тарифов и счетчиков
type UsageRepository interface {
	GetTier(ctx context.Context, clientID int64) (domain.Tier, error)
	GetCount(ctx context.Context, clientID int64, periodKey string) (int, error)
	Increment(ctx context.Context, clientID int64, periodKey string) (int, error)
}

// ScheduleResolver возвращает активного провайдера и его действующую сетку
type ScheduleResolver interface {
	Resolve(ctx context.Context, providerID int64) (*domain.Provider, *domain.ProviderSchedule, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher публикует события жизненного цикла бронирования
type EventPublisher interface {
	Publish(ctx context.Context, event events.BookingEvent) error
}

// Metrics счетчики исходов бронирования
type Metrics interface {
	ObserveBooking(outcome string)
	ObserveQuotaDecision(tier, decision string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

package bookings

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/events"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) error
	Cancel(ctx context.Context, id int64, reason *string, cancelledAt time.Time) error
}

// UsageRepository интерфейс счетчиков использования тарифа
type UsageRepository interface {
	Decrement(ctx context.Context, clientID int64, periodKey string) error
}

// ProviderDirectory источник профилей провайдеров
type ProviderDirectory interface {
	GetProvider(ctx context.Context, providerID int64) (*domain.Provider, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher публикует события жизненного цикла бронирования
type EventPublisher interface {
	Publish(ctx context.Context, event events.BookingEvent) error
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

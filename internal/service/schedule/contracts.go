package schedule

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// ScheduleRepository интерфейс репозитория переопределений расписания
type ScheduleRepository interface {
	GetByProviderID(ctx context.Context, providerID int64) (*domain.ProviderSchedule, error)
	Upsert(ctx context.Context, s *domain.ProviderSchedule) (*domain.ProviderSchedule, error)
	Delete(ctx context.Context, providerID int64) error
}

// ProviderDirectory источник профилей провайдеров
type ProviderDirectory interface {
	GetProvider(ctx context.Context, providerID int64) (*domain.Provider, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

package get_availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// AvailabilityIndex снимки занятости провайдера и клиента на дату
type AvailabilityIndex interface {
	BookedSlotsForProvider(ctx context.Context, providerID int64, date time.Time) ([]types.TimeString, error)
	BookedSlotsForClient(ctx context.Context, clientID int64, date time.Time) ([]domain.ClientSlot, error)
}

// ScheduleResolver возвращает активного провайдера и его действующую сетку
type ScheduleResolver interface {
	Resolve(ctx context.Context, providerID int64) (*domain.Provider, *domain.ProviderSchedule, error)
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

package subscriptions

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// UsageRepository интерфейс репозитория тарифов и счетчиков
type UsageRepository interface {
	GetTier(ctx context.Context, clientID int64) (domain.Tier, error)
	SetTier(ctx context.Context, clientID int64, tier domain.Tier) error
	GetCount(ctx context.Context, clientID int64, periodKey string) (int, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

package providerdirectory

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// Directory источник профилей провайдеров
type Directory interface {
	GetProvider(ctx context.Context, providerID int64) (*domain.Provider, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

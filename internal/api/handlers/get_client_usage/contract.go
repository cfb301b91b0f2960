package get_client_usage

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/service/subscriptions/models"
)

type SubscriptionService interface {
	GetUsage(ctx context.Context, clientID int64, userID int64) (*models.UsageResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

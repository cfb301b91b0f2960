package update_subscription

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/service/subscriptions/models"
)

type SubscriptionService interface {
	SetTier(ctx context.Context, clientID int64, req *models.SetTierRequest) (*models.UsageResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

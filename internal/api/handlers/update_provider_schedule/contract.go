package update_provider_schedule

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/service/schedule/models"
)

type ScheduleService interface {
	Update(ctx context.Context, providerID int64, req *models.UpdateScheduleRequest) (*models.ScheduleResponse, error)
	Reset(ctx context.Context, providerID int64, userID int64) (*models.ScheduleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

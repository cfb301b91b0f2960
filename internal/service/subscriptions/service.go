package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	usageRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/usage"
	"github.com/m04kA/SMC-ConsultationService/internal/service/subscriptions/models"
)

// Service тарифы клиентов и использование квоты
type Service struct {
	usageRepo UsageRepository
	catalog   domain.PlanCatalog
	period    domain.QuotaPeriod
	location  *time.Location
	now       func() time.Time
	logger    Logger
}

// NewService создает новый экземпляр сервиса подписок
func NewService(usageRepo UsageRepository, catalog domain.PlanCatalog, period domain.QuotaPeriod, location *time.Location, logger Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	if !period.IsValid() {
		period = domain.QuotaPeriodMonth
	}
	return &Service{
		usageRepo: usageRepo,
		catalog:   catalog,
		period:    period,
		location:  location,
		now:       time.Now,
		logger:    logger,
	}
}

// GetUsage возвращает тариф и число записей в текущем периоде
// Клиент видит только свои данные
func (s *Service) GetUsage(ctx context.Context, clientID int64, userID int64) (*models.UsageResponse, error) {
	if clientID != userID {
		s.logger.Warn("GetUsage: user=%d cannot read usage of client=%d", userID, clientID)
		return nil, ErrAccessDenied
	}

	tier, err := s.usageRepo.GetTier(ctx, clientID)
	if errors.Is(err, usageRepo.ErrSubscriptionNotFound) {
		tier = domain.TierFree
	} else if err != nil {
		s.logger.Error("GetUsage: failed to get tier for client=%d: %v", clientID, err)
		return nil, fmt.Errorf("%w: GetUsage - repository error: %v", ErrInternal, err)
	}

	periodKey := s.period.PeriodKey(s.now().In(s.location))
	used, err := s.usageRepo.GetCount(ctx, clientID, periodKey)
	if err != nil {
		s.logger.Error("GetUsage: failed to get usage for client=%d: %v", clientID, err)
		return nil, fmt.Errorf("%w: GetUsage - repository error: %v", ErrInternal, err)
	}

	plan := s.catalog.Plan(tier)
	resp := &models.UsageResponse{
		ClientID:       clientID,
		Tier:           string(plan.Tier),
		PeriodKey:      periodKey,
		Used:           used,
		MaxAdvanceDays: plan.MaxAdvanceDays,
	}
	if !plan.IsUnlimited() {
		limit := plan.MaxBookingsPerPeriod
		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}
		resp.Limit = &limit
		resp.Remaining = &remaining
	}

	return resp, nil
}

// SetTier назначает тариф клиенту
func (s *Service) SetTier(ctx context.Context, clientID int64, req *models.SetTierRequest) (*models.UsageResponse, error) {
	s.logger.Info("SetTier: client=%d tier=%s", clientID, req.Tier)

	if clientID <= 0 {
		return nil, fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}

	tier := domain.Tier(req.Tier)
	if !tier.IsValid() {
		s.logger.Warn("SetTier: unknown tier=%s", req.Tier)
		return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, req.Tier)
	}

	if err := s.usageRepo.SetTier(ctx, clientID, tier); err != nil {
		s.logger.Error("SetTier: repository error for client=%d: %v", clientID, err)
		return nil, fmt.Errorf("%w: SetTier - repository error: %v", ErrInternal, err)
	}

	return s.GetUsage(ctx, clientID, clientID)
}

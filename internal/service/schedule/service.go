package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-ConsultationService/internal/integrations/providerdirectory"
	"github.com/m04kA/SMC-ConsultationService/internal/scheduling"
	"github.com/m04kA/SMC-ConsultationService/internal/service/schedule/models"
)

// Service разрешает действующую сетку слотов и управляет переопределениями
type Service struct {
	scheduleRepo ScheduleRepository
	directory    ProviderDirectory
	defaults     func(providerID int64) *domain.ProviderSchedule
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний.
// defaults возвращает сетку по умолчанию из конфигурации, nil = встроенные значения.
func NewService(
	scheduleRepo ScheduleRepository,
	directory ProviderDirectory,
	defaults func(providerID int64) *domain.ProviderSchedule,
	logger Logger,
) *Service {
	if defaults == nil {
		defaults = domain.DefaultSchedule
	}
	return &Service{
		scheduleRepo: scheduleRepo,
		directory:    directory,
		defaults:     defaults,
		logger:       logger,
	}
}

// Resolve возвращает активного провайдера и его действующую сетку
// Приоритет: локальное переопределение > часы из справочника > значения по умолчанию
func (s *Service) Resolve(ctx context.Context, providerID int64) (*domain.Provider, *domain.ProviderSchedule, error) {
	provider, err := s.directory.GetProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, providerdirectory.ErrProviderNotFound) {
			return nil, nil, ErrProviderNotFound
		}
		s.logger.Error("Resolve: failed to get provider id=%d: %v", providerID, err)
		return nil, nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}
	if !provider.IsActive {
		s.logger.Warn("Resolve: provider id=%d is inactive", providerID)
		return nil, nil, ErrProviderNotFound
	}

	override, err := s.scheduleRepo.GetByProviderID(ctx, providerID)
	if err != nil && !errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
		s.logger.Error("Resolve: failed to get schedule for provider id=%d: %v", providerID, err)
		return nil, nil, fmt.Errorf("%w: failed to get schedule: %v", ErrInternal, err)
	}

	return provider, domain.ResolveSchedule(provider, override, s.defaults(providerID)), nil
}

// Get возвращает действующую сетку провайдера
// Публичный метод - доступен всем
func (s *Service) Get(ctx context.Context, providerID int64) (*models.ScheduleResponse, error) {
	s.logger.Info("Get: fetching schedule for provider=%d", providerID)

	_, schedule, err := s.Resolve(ctx, providerID)
	if err != nil {
		return nil, err
	}

	return models.FromDomainSchedule(schedule), nil
}

// Update сохраняет переопределение сетки
// Доступно только аккаунту самого провайдера
func (s *Service) Update(ctx context.Context, providerID int64, req *models.UpdateScheduleRequest) (*models.ScheduleResponse, error) {
	s.logger.Info("Update: updating schedule for provider=%d by user=%d", providerID, req.UserID)

	// 1. Получаем провайдера и текущую сетку
	provider, current, err := s.Resolve(ctx, providerID)
	if err != nil {
		return nil, err
	}

	// 2. Проверяем права доступа
	if provider.UserID != req.UserID {
		s.logger.Warn("Update: user=%d is not the account of provider=%d", req.UserID, providerID)
		return nil, ErrAccessDenied
	}

	// 3. Применяем изменения поверх действующей сетки и валидируем
	updated := *current
	req.ApplyTo(&updated)
	updated.ProviderID = providerID
	updated.Source = domain.ScheduleSourceOverride

	if err := scheduling.ValidateSchedule(&updated); err != nil {
		s.logger.Warn("Update: validation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// 4. Сохраняем
	saved, err := s.scheduleRepo.Upsert(ctx, &updated)
	if err != nil {
		s.logger.Error("Update: repository error: %v", err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Update: schedule for provider=%d saved (%s-%s, step %d)",
		providerID, saved.OpenTime, saved.CloseTime, saved.SlotStepMinutes)
	return models.FromDomainSchedule(saved), nil
}

// Reset удаляет переопределение, провайдер возвращается к часам из справочника
func (s *Service) Reset(ctx context.Context, providerID int64, userID int64) (*models.ScheduleResponse, error) {
	s.logger.Info("Reset: resetting schedule for provider=%d by user=%d", providerID, userID)

	provider, _, err := s.Resolve(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider.UserID != userID {
		s.logger.Warn("Reset: user=%d is not the account of provider=%d", userID, providerID)
		return nil, ErrAccessDenied
	}

	if err := s.scheduleRepo.Delete(ctx, providerID); err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("Reset: repository error: %v", err)
		return nil, fmt.Errorf("%w: Reset - repository error: %v", ErrInternal, err)
	}

	return s.Get(ctx, providerID)
}

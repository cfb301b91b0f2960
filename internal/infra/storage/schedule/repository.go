package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ConsultationService/pkg/psqlbuilder"
)

type DBExecutor = dbmetrics.DBExecutor

// Repository локальные переопределения сетки слотов провайдеров
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByProviderID возвращает переопределение расписания или ErrScheduleNotFound
func (r *Repository) GetByProviderID(ctx context.Context, providerID int64) (*domain.ProviderSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"provider_id",
		"open_time",
		"close_time",
		"slot_step_minutes",
		"min_notice_minutes",
		"created_at",
		"updated_at",
	).
		From("provider_schedules").
		Where(squirrel.Eq{"provider_id": providerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.ProviderSchedule
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&s.ProviderID,
		&s.OpenTime,
		&s.CloseTime,
		&s.SlotStepMinutes,
		&s.MinNoticeMinutes,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderID - scan schedule: %w", ErrScanRow, err)
	}

	s.Source = domain.ScheduleSourceOverride
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}

// Upsert создает или заменяет переопределение расписания провайдера
func (r *Repository) Upsert(ctx context.Context, s *domain.ProviderSchedule) (*domain.ProviderSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("provider_schedules").
		Columns(
			"provider_id",
			"open_time",
			"close_time",
			"slot_step_minutes",
			"min_notice_minutes",
		).
		Values(
			s.ProviderID,
			s.OpenTime,
			s.CloseTime,
			s.SlotStepMinutes,
			s.MinNoticeMinutes,
		).
		Suffix(`ON CONFLICT (provider_id) DO UPDATE SET
			open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time,
			slot_step_minutes = EXCLUDED.slot_step_minutes,
			min_notice_minutes = EXCLUDED.min_notice_minutes,
			updated_at = NOW()
		RETURNING created_at, updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %w", ErrExecQuery, err)
	}

	s.Source = domain.ScheduleSourceOverride
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return s, nil
}

// Delete удаляет переопределение: провайдер возвращается к часам из справочника
func (r *Repository) Delete(ctx context.Context, providerID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("provider_schedules").
		Where(squirrel.Eq{"provider_id": providerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrScheduleNotFound
	}

	return nil
}

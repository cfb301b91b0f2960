package usage

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

// Repository тарифы клиентов и счетчики использования по периодам
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetTier возвращает тариф клиента или ErrSubscriptionNotFound
func (r *Repository) GetTier(ctx context.Context, clientID int64) (domain.Tier, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("tier").
		From("client_subscriptions").
		Where(squirrel.Eq{"client_id": clientID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%w: GetTier - build select query: %v", ErrBuildQuery, err)
	}

	var tier domain.Tier
	err = executor.QueryRowContext(ctx, query, args...).Scan(&tier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSubscriptionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: GetTier - scan tier: %w", ErrScanRow, err)
	}

	return tier, nil
}

// SetTier назначает тариф клиенту
func (r *Repository) SetTier(ctx context.Context, clientID int64, tier domain.Tier) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("client_subscriptions").
		Columns("client_id", "tier").
		Values(clientID, string(tier)).
		Suffix("ON CONFLICT (client_id) DO UPDATE SET tier = EXCLUDED.tier, updated_at = NOW()").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetTier - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: SetTier - execute insert: %w", ErrExecQuery, err)
	}
	return nil
}

// GetCount возвращает счетчик клиента за период, 0 если записи нет.
// Внутри транзакции строка блокируется.
func (r *Repository) GetCount(ctx context.Context, clientID int64, periodKey string) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("count").
		From("usage_counters").
		Where(squirrel.Eq{"client_id": clientID, "period_key": periodKey})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: GetCount - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: GetCount - scan count: %w", ErrScanRow, err)
	}

	return count, nil
}

// Increment увеличивает счетчик и возвращает новое значение
func (r *Repository) Increment(ctx context.Context, clientID int64, periodKey string) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("usage_counters").
		Columns("client_id", "period_key", "count").
		Values(clientID, periodKey, 1).
		Suffix("ON CONFLICT (client_id, period_key) DO UPDATE SET count = usage_counters.count + 1, updated_at = NOW() RETURNING count").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: Increment - build insert query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: Increment - execute insert: %w", ErrExecQuery, err)
	}
	return count, nil
}

// Decrement освобождает одну единицу квоты, счетчик не уходит ниже нуля
func (r *Repository) Decrement(ctx context.Context, clientID int64, periodKey string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("usage_counters").
		Set("count", squirrel.Expr("GREATEST(count - 1, 0)")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"client_id": clientID, "period_key": periodKey}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Decrement - build update query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Decrement - execute update: %w", ErrExecQuery, err)
	}
	return nil
}

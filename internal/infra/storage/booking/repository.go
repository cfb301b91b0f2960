package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/migrations"
	"github.com/m04kA/SMC-ConsultationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ConsultationService/pkg/pgerr"
	"github.com/m04kA/SMC-ConsultationService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

var bookingColumns = []string{
	"id",
	"client_id",
	"provider_id",
	"provider_name",
	"booking_date",
	"start_time",
	"duration_minutes",
	"consultation_type",
	"status",
	"amount",
	"payment_ref",
	"period_key",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
// Ошибки драйвера оборачиваются через %w, чтобы менеджер транзакций видел 40001
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование.
// Нарушение уникальных индексов возвращается как ErrSlotTaken, ErrClientSlotTaken
// или ErrDuplicatePaymentRef в зависимости от имени индекса.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"client_id",
			"provider_id",
			"provider_name",
			"booking_date",
			"start_time",
			"duration_minutes",
			"consultation_type",
			"status",
			"amount",
			"payment_ref",
			"period_key",
		).
		Values(
			booking.ClientID,
			booking.ProviderID,
			booking.ProviderName,
			booking.BookingDate,
			booking.StartTime,
			booking.DurationMinutes,
			booking.ConsultationType,
			booking.Status,
			booking.Amount,
			booking.PaymentRef,
			booking.PeriodKey,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if constraint, ok := pgerr.UniqueViolation(err); ok {
			return nil, classifyUniqueViolation(constraint, err)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

func classifyUniqueViolation(constraint string, err error) error {
	switch constraint {
	case migrations.ProviderSlotIndex:
		return fmt.Errorf("%w: %v", ErrSlotTaken, err)
	case migrations.ClientSlotIndex:
		return fmt.Errorf("%w: %v", ErrClientSlotTaken, err)
	case migrations.PaymentRefIndex:
		return fmt.Errorf("%w: %v", ErrDuplicatePaymentRef, err)
	default:
		return fmt.Errorf("%w: Create - unique violation on %s: %w", ErrExecQuery, constraint, err)
	}
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %w", ErrScanRow, err)
	}

	return booking, nil
}

// GetByPaymentRef возвращает неотмененное бронирование с этой платежной ссылкой
// Внутри транзакции строка блокируется
func (r *Repository) GetByPaymentRef(ctx context.Context, paymentRef string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"payment_ref": paymentRef}).
		Where(squirrel.NotEq{"status": string(domain.StatusCancelled)})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPaymentRef - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPaymentRef - scan booking: %w", ErrScanRow, err)
	}

	return booking, nil
}

// GetWithFilter получает бронирования клиента или провайдера с фильтрацией
// по периоду, статусу и неактивным записям
func (r *Repository) GetWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).From("bookings")

	if filter.ClientID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.ProviderID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"provider_id": *filter.ProviderID})
	}

	// Фильтрация по периоду
	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"booking_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"booking_date": *filter.EndDate})
	}

	// Фильтрация по статусу
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": string(*filter.Status)})
	} else if !filter.IncludeInactive {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)})
	}

	// Для конкретной даты сортируем по времени, иначе сначала новые
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.Equal(*filter.EndDate) {
		selectBuilder = selectBuilder.OrderBy("start_time ASC")
	} else {
		selectBuilder = selectBuilder.OrderBy("booking_date DESC", "start_time DESC")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWithFilter - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// BookedSlotsForProvider возвращает время активных записей провайдера на дату.
// Клиенты не раскрываются. Внутри транзакции строки блокируются.
func (r *Repository) BookedSlotsForProvider(ctx context.Context, providerID int64, date time.Time) ([]types.TimeString, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("start_time").
		From("bookings").
		Where(squirrel.Eq{"provider_id": providerID}).
		Where(squirrel.Eq{"booking_date": date}).
		Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: BookedSlotsForProvider - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: BookedSlotsForProvider - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]types.TimeString, 0)
	for rows.Next() {
		var t types.TimeString
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("%w: BookedSlotsForProvider - scan start_time: %w", ErrScanRow, err)
		}
		slots = append(slots, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: BookedSlotsForProvider - rows error: %w", ErrScanRow, err)
	}

	return slots, nil
}

// BookedSlotsForClient возвращает активные записи клиента на дату у всех провайдеров
func (r *Repository) BookedSlotsForClient(ctx context.Context, clientID int64, date time.Time) ([]domain.ClientSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("start_time", "provider_id", "provider_name").
		From("bookings").
		Where(squirrel.Eq{"client_id": clientID}).
		Where(squirrel.Eq{"booking_date": date}).
		Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: BookedSlotsForClient - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: BookedSlotsForClient - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]domain.ClientSlot, 0)
	for rows.Next() {
		var s domain.ClientSlot
		if err := rows.Scan(&s.StartTime, &s.ProviderID, &s.ProviderName); err != nil {
			return nil, fmt.Errorf("%w: BookedSlotsForClient - scan row: %w", ErrScanRow, err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: BookedSlotsForClient - rows error: %w", ErrScanRow, err)
	}

	return slots, nil
}

// UpdateStatus переводит бронирование из статуса from в to.
// Строка обновляется, только если статус все еще from; иначе ErrStatusChanged.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", string(to)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": string(from)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execGuarded(ctx, executor, "UpdateStatus", query, args)
}

// Cancel отменяет активное бронирование с указанием причины.
// Уже отмененная или завершенная запись не меняется: ErrStatusChanged.
func (r *Repository) Cancel(ctx context.Context, id int64, reason *string, cancelledAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", string(domain.StatusCancelled)).
		Set("cancellation_reason", reason).
		Set("cancelled_at", cancelledAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	return r.execGuarded(ctx, executor, "Cancel", query, args)
}

// execGuarded выполняет UPDATE с условием на текущий статус.
// Под READ COMMITTED конкурирующий UPDATE ждет блокировку строки и перепроверяет WHERE,
// поэтому проигравший получает 0 строк.
func (r *Repository) execGuarded(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrStatusChanged
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.ProviderID,
		&booking.ProviderName,
		&booking.BookingDate,
		&booking.StartTime,
		&booking.DurationMinutes,
		&booking.ConsultationType,
		&booking.Status,
		&booking.Amount,
		&booking.PaymentRef,
		&booking.PeriodKey,
		&booking.CancellationReason,
		&booking.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %w", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %w", ErrScanRow, err)
	}

	return bookings, nil
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

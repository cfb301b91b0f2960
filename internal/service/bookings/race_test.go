package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/storage/memory"
	usageRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/usage"
	"github.com/m04kA/SMC-ConsultationService/internal/integrations/providerdirectory"
	"github.com/m04kA/SMC-ConsultationService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ConsultationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ConsultationService/pkg/logger"
	"github.com/m04kA/SMC-ConsultationService/pkg/txmanager"
)

// staleRepo отдает снимок записи, прочитанный до конкурентной смены статуса
type staleRepo struct {
	*memory.BookingRepository
	snapshot *domain.Booking
}

func (r *staleRepo) GetByID(_ context.Context, _ int64) (*domain.Booking, error) {
	b := *r.snapshot
	return &b, nil
}

func newStaleService(t *testing.T, store *memory.Store, snapshot *domain.Booking) *Service {
	t.Helper()
	dir := providerdirectory.NewStatic([]domain.Provider{
		{ID: providerID, UserID: providerAccount, Name: "Anna Petrova", IsActive: true},
	})
	repo := &staleRepo{BookingRepository: store.Bookings(), snapshot: snapshot}
	return NewService(repo, store.Usage(), dir, store.TxManager(), &recordingPublisher{}, true, logger.NewNop()).
		WithTimeProvider(fixedClock{now: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)})
}

func TestService_ConcurrentCancelReleasesQuotaOnce(t *testing.T) {
	svc, store, _ := newTestService(t, true)
	first := seed(t, store, "10:00", "a")
	seed(t, store, "11:00", "b")
	ctx := context.Background()

	// Второй отменяющий прочитал запись, пока она еще была pending
	snapshot, err := store.Bookings().GetByID(ctx, first.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, first.ID, &models.CancelBookingRequest{UserID: clientID})
	require.NoError(t, err)

	_, err = newStaleService(t, store, snapshot).Cancel(ctx, first.ID, &models.CancelBookingRequest{UserID: providerAccount})
	assert.ErrorIs(t, err, ErrCannotCancel)

	count, err := store.Usage().GetCount(ctx, clientID, "2026-10")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestService_StaleConfirmDoesNotReviveCancelled(t *testing.T) {
	svc, store, _ := newTestService(t, true)
	b := seed(t, store, "10:00", "a")
	ctx := context.Background()

	snapshot, err := store.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, b.ID, &models.CancelBookingRequest{UserID: clientID})
	require.NoError(t, err)

	_, err = newStaleService(t, store, snapshot).UpdateStatus(ctx, b.ID, &models.UpdateStatusRequest{UserID: providerAccount, Status: "confirmed"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	current, err := store.Bookings().GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, current.Status)
}

var bookingRowColumns = []string{
	"id", "client_id", "provider_id", "provider_name", "booking_date", "start_time",
	"duration_minutes", "consultation_type", "status", "amount", "payment_ref", "period_key",
	"cancellation_reason", "cancelled_at", "created_at", "updated_at",
}

// Postgres: чтение видит pending, UPDATE после ожидания блокировки строки не находит активную запись
func TestService_CancelLostRace_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	wrapped := dbmetrics.Wrap(db, nil)
	dir := providerdirectory.NewStatic([]domain.Provider{
		{ID: providerID, UserID: providerAccount, Name: "Anna Petrova", IsActive: true},
	})
	svc := NewService(
		bookingRepo.NewRepository(wrapped),
		usageRepo.NewRepository(wrapped),
		dir,
		txmanager.NewTransactionManager(wrapped),
		&recordingPublisher{},
		true,
		logger.NewNop(),
	).WithTimeProvider(fixedClock{now: time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)})

	now := time.Now()
	pendingRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(bookingRowColumns).AddRow(
			3, clientID, providerID, "Anna Petrova", bookingDate, "10:00:00", 30, "in_person", "pending",
			2500.0, "a", "2026-10", nil, nil, now, now,
		)
	}

	mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).WithArgs(int64(3)).WillReturnRows(pendingRow())
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).WithArgs(int64(3)).WillReturnRows(pendingRow())
	mock.ExpectExec(`UPDATE bookings SET .* WHERE id = \$4 AND status IN \(\$5,\$6\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = svc.Cancel(context.Background(), 3, &models.CancelBookingRequest{UserID: clientID})
	assert.ErrorIs(t, err, ErrCannotCancel)

	// UPDATE usage_counters не ожидается: sqlmock упал бы на лишнем запросе
	assert.NoError(t, mock.ExpectationsWereMet())
}

package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

func TestRepository_GetByProviderID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM provider_schedules WHERE provider_id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{
			"provider_id", "open_time", "close_time", "slot_step_minutes", "min_notice_minutes", "created_at", "updated_at",
		}).AddRow(10, "10:00:00", "18:00:00", 45, 60, now, now))

	s, err := repo.GetByProviderID(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, types.TimeString("10:00"), s.OpenTime)
	assert.Equal(t, types.TimeString("18:00"), s.CloseTime)
	assert.Equal(t, 45, s.SlotStepMinutes)
	assert.Equal(t, domain.ScheduleSourceOverride, s.Source)
}

func TestRepository_GetByProviderID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM provider_schedules`).
		WillReturnRows(sqlmock.NewRows([]string{"provider_id"}))

	_, err = NewRepository(db).GetByProviderID(context.Background(), 10)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO provider_schedules .* ON CONFLICT \(provider_id\) DO UPDATE`).
		WithArgs(int64(10), "08:00", "16:00", 60, 0).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	s, err := NewRepository(db).Upsert(context.Background(), &domain.ProviderSchedule{
		ProviderID: 10, OpenTime: "08:00", CloseTime: "16:00", SlotStepMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, now, s.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM provider_schedules WHERE provider_id = \$1`).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewRepository(db).Delete(context.Background(), 10), ErrScheduleNotFound)
}

package usage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), mock
}

func TestRepository_GetTier(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT tier FROM client_subscriptions WHERE client_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"tier"}).AddRow("premium"))
	mock.ExpectQuery(`SELECT tier FROM client_subscriptions`).
		WithArgs(int64(2)).
		WillReturnError(sql.ErrNoRows)

	tier, err := repo.GetTier(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TierPremium, tier)

	_, err = repo.GetTier(context.Background(), 2)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestRepository_GetCount_MissingRowIsZero(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT count FROM usage_counters`).
		WithArgs(int64(1), "2026-10").
		WillReturnRows(sqlmock.NewRows([]string{"count"}))

	count, err := repo.GetCount(context.Background(), 1, "2026-10")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRepository_Increment(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO usage_counters .* ON CONFLICT \(client_id, period_key\) DO UPDATE SET count = usage_counters.count \+ 1`).
		WithArgs(int64(1), "2026-10", 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.Increment(context.Background(), 1, "2026-10")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRepository_Decrement(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(`UPDATE usage_counters SET count = GREATEST\(count - 1, 0\)`).
		WithArgs(int64(1), "2026-10").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Decrement(context.Background(), 1, "2026-10"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

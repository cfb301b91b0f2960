package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ConsultationService/internal/integrations/providerdirectory"
	"github.com/m04kA/SMC-ConsultationService/internal/service/schedule"
	"github.com/m04kA/SMC-ConsultationService/pkg/logger"
	"github.com/m04kA/SMC-ConsultationService/pkg/pgerr"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

// 2026-10-17 10:00 UTC
var testNow = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

var tomorrow = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type nopMetrics struct{}

func (nopMetrics) ObserveBooking(string)               {}
func (nopMetrics) ObserveQuotaDecision(string, string) {}

type fixture struct {
	store     *memory.Store
	publisher *recordingPublisher
	uc        *UseCase
}

var testCatalog = domain.PlanCatalog{
	domain.TierFree:     {Tier: domain.TierFree, MaxBookingsPerPeriod: 2, MaxAdvanceDays: 7},
	domain.TierBasic:    {Tier: domain.TierBasic, MaxBookingsPerPeriod: 4, MaxAdvanceDays: 14},
	domain.TierUltimate: {Tier: domain.TierUltimate, MaxBookingsPerPeriod: domain.Unlimited, MaxAdvanceDays: 30},
}

func newFixture(t *testing.T, providers ...domain.Provider) *fixture {
	t.Helper()
	if len(providers) == 0 {
		providers = []domain.Provider{
			{ID: 1, UserID: 101, Name: "Anna Petrova", IsActive: true},
			{ID: 2, UserID: 102, Name: "Boris Smirnov", IsActive: true},
			{ID: 3, UserID: 103, Name: "Inactive", IsActive: false},
		}
	}

	store := memory.NewStore()
	log := logger.NewNop()
	schedules := schedule.NewService(store.Schedules(), providerdirectory.NewStatic(providers), nil, log)
	publisher := &recordingPublisher{}

	uc := NewUseCase(
		store.Bookings(),
		store.Usage(),
		schedules,
		store.TxManager(),
		publisher,
		nopMetrics{},
		Settings{Catalog: testCatalog, Period: domain.QuotaPeriodMonth, Location: time.UTC},
		log,
	).WithTimeProvider(fixedClock{now: testNow})

	return &fixture{store: store, publisher: publisher, uc: uc}
}

func request(clientID, providerID int64, date time.Time, start, ref string) *Request {
	return &Request{
		ClientID:         clientID,
		ProviderID:       providerID,
		Date:             date,
		StartTime:        types.TimeString(start),
		ConsultationType: domain.ConsultationOnline,
		Amount:           2500,
		PaymentRef:       ref,
	}
}

func usage(t *testing.T, f *fixture, clientID int64) int {
	t.Helper()
	n, err := f.store.Usage().GetCount(context.Background(), clientID, "2026-10")
	require.NoError(t, err)
	return n
}

func TestExecute_Success(t *testing.T) {
	f := newFixture(t)

	resp, err := f.uc.Execute(context.Background(), request(7, 1, tomorrow, "14:00", "pay-1"))
	require.NoError(t, err)

	assert.False(t, resp.Replayed)
	assert.Equal(t, domain.StatusPending, resp.Booking.Status)
	assert.Equal(t, "2026-10", resp.Booking.PeriodKey)
	assert.Equal(t, "Anna Petrova", resp.Booking.ProviderName)
	assert.Equal(t, 30, resp.Booking.DurationMinutes)
	assert.Equal(t, domain.TierFree, resp.Tier)
	assert.Equal(t, 1, resp.Used)
	assert.Equal(t, 2, resp.Limit)
	assert.Equal(t, 1, usage(t, f, 7))

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeBookingCreated, f.publisher.events[0].Type)
	assert.Equal(t, resp.Booking.ID, f.publisher.events[0].BookingID)
}

func TestExecute_PublishFailureKeepsBooking(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	resp, err := f.uc.Execute(context.Background(), request(7, 1, tomorrow, "14:00", "pay-1"))
	require.NoError(t, err)
	assert.NotZero(t, resp.Booking.ID)
}

func TestExecute_OffGridTime(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), request(7, 1, tomorrow, "14:05", "pay-1"))
	assert.ErrorIs(t, err, ErrInvalidSlot)
	assert.Equal(t, 0, usage(t, f, 7))

	_, err = f.uc.Execute(context.Background(), request(7, 1, tomorrow, "19:45", "pay-2"))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	// последний слот: 19:30 + 30 = 20:00
	_, err = f.uc.Execute(context.Background(), request(7, 1, tomorrow, "19:30", "pay-3"))
	assert.NoError(t, err)
}

func TestExecute_ElapsedToday(t *testing.T) {
	f := newFixture(t)
	today := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	_, err := f.uc.Execute(context.Background(), request(7, 1, today, "10:00", "pay-1"))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = f.uc.Execute(context.Background(), request(7, 1, today.AddDate(0, 0, -1), "15:00", "pay-2"))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = f.uc.Execute(context.Background(), request(7, 1, today, "10:30", "pay-3"))
	assert.NoError(t, err)
}

func TestExecute_ConflictWithOtherProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, request(7, 2, tomorrow, "16:00", "pay-1"))
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, request(7, 1, tomorrow, "16:00", "pay-2"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.ErrorIs(t, err, ErrConflictsWithOtherProvider)

	var slotErr *SlotUnavailableError
	require.True(t, errors.As(err, &slotErr))
	assert.Equal(t, domain.OutcomeConflictsWithOtherProvider, slotErr.Outcome)
	require.NotNil(t, slotErr.ConflictingProviderName)
	assert.Equal(t, "Boris Smirnov", *slotErr.ConflictingProviderName)
	assert.Equal(t, int64(2), *slotErr.ConflictingProviderID)

	assert.Equal(t, 1, usage(t, f, 7))
}

func TestExecute_Precedence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, request(7, 1, tomorrow, "12:00", "pay-1"))
	require.NoError(t, err)

	// своя запись важнее, чем "занято другими"
	_, err = f.uc.Execute(ctx, request(7, 1, tomorrow, "12:00", "pay-2"))
	assert.ErrorIs(t, err, ErrAlreadyBookedBySelf)
	assert.NotErrorIs(t, err, ErrTakenByOthers)

	_, err = f.uc.Execute(ctx, request(8, 1, tomorrow, "12:00", "pay-3"))
	assert.ErrorIs(t, err, ErrTakenByOthers)

	// клиент 8 занят у провайдера 2 и провайдер 1 занят клиентом 7
	_, err = f.uc.Execute(ctx, request(8, 2, tomorrow, "13:00", "pay-4"))
	require.NoError(t, err)
	_, err = f.uc.Execute(ctx, request(7, 1, tomorrow, "13:00", "pay-5"))
	require.NoError(t, err)
	_, err = f.uc.Execute(ctx, request(8, 1, tomorrow, "13:00", "pay-6"))
	assert.ErrorIs(t, err, ErrConflictsWithOtherProvider)
}

func TestExecute_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, request(7, 1, tomorrow, "14:00", "pay-1"))
	require.NoError(t, err)

	second, err := f.uc.Execute(ctx, request(7, 1, tomorrow, "14:00", "pay-1"))
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)
	assert.Equal(t, 1, usage(t, f, 7))
	assert.Len(t, f.publisher.events, 1)
}

func TestExecute_PaymentRefOfAnotherClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, request(7, 1, tomorrow, "14:00", "pay-1"))
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, request(8, 1, tomorrow, "15:00", "pay-1"))
	assert.ErrorIs(t, err, ErrPaymentRefConflict)
	assert.Equal(t, 0, usage(t, f, 8))
}

func TestExecute_QuotaBoundaryAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, request(7, 1, tomorrow, "10:00", "pay-1"))
	require.NoError(t, err)
	_, err = f.uc.Execute(ctx, request(7, 1, tomorrow, "11:00", "pay-2"))
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, request(7, 1, tomorrow, "12:00", "pay-3"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	var quotaErr *QuotaError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, domain.TierFree, quotaErr.Tier)
	assert.Equal(t, 2, quotaErr.Used)
	assert.Equal(t, 2, quotaErr.Limit)

	// отмена освобождает единицу квоты
	err = f.store.TxManager().Do(ctx, func(txCtx context.Context) error {
		if err := f.store.Bookings().Cancel(txCtx, first.Booking.ID, nil, testNow); err != nil {
			return err
		}
		return f.store.Usage().Decrement(txCtx, 7, first.Booking.PeriodKey)
	})
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, request(7, 1, tomorrow, "12:00", "pay-3"))
	assert.NoError(t, err)
	assert.Equal(t, 2, usage(t, f, 7))
}

func TestExecute_TierLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Usage().SetTier(ctx, 7, domain.TierUltimate))

	for i := 0; i < 5; i++ {
		start := types.MustTimeString(fmt.Sprintf("%02d:00", 10+i))
		resp, err := f.uc.Execute(ctx, request(7, 1, tomorrow, start.String(), fmt.Sprintf("pay-%d", i)))
		require.NoError(t, err)
		assert.Equal(t, domain.Unlimited, resp.Limit)
	}
}

func TestExecute_AdvanceWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, request(7, 1, tomorrow.AddDate(0, 0, 6), "10:00", "pay-1"))
	require.NoError(t, err)

	_, err = f.uc.Execute(ctx, request(7, 1, tomorrow.AddDate(0, 0, 7), "10:00", "pay-2"))
	assert.ErrorIs(t, err, ErrAdvanceWindowExceeded)

	var quotaErr *QuotaError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, 7, quotaErr.MaxAdvanceDays)
}

func TestExecute_ProviderAndInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Execute(ctx, request(7, 3, tomorrow, "10:00", "pay-1"))
	assert.ErrorIs(t, err, ErrProviderNotFound)

	_, err = f.uc.Execute(ctx, request(7, 42, tomorrow, "10:00", "pay-1"))
	assert.ErrorIs(t, err, ErrProviderNotFound)

	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"zero client", func(r *Request) { r.ClientID = 0 }},
		{"zero provider", func(r *Request) { r.ProviderID = 0 }},
		{"no date", func(r *Request) { r.Date = time.Time{} }},
		{"bad time", func(r *Request) { r.StartTime = "25:00" }},
		{"unknown type", func(r *Request) { r.ConsultationType = "phone" }},
		{"negative amount", func(r *Request) { r.Amount = -1 }},
		{"empty ref", func(r *Request) { r.PaymentRef = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(7, 1, tomorrow, "10:00", "pay-x")
			tt.mutate(req)
			_, err := f.uc.Execute(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestExecute_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const clients = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		taken   int
	)

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(clientID int64) {
			defer wg.Done()
			_, err := f.uc.Execute(ctx, request(clientID, 1, tomorrow, "15:00", fmt.Sprintf("pay-%d", clientID)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrTakenByOthers):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(100 + i))
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, clients-1, taken)

	busy, err := f.store.Bookings().BookedSlotsForProvider(ctx, 1, tomorrow)
	require.NoError(t, err)
	assert.Len(t, busy, 1)
}

func TestExecute_ConcurrentSameClientAcrossProviders(t *testing.T) {
	providers := make([]domain.Provider, 0, 10)
	for i := 1; i <= 10; i++ {
		providers = append(providers, domain.Provider{ID: int64(i), UserID: int64(100 + i), Name: fmt.Sprintf("P%d", i), IsActive: true})
	}
	f := newFixture(t, providers...)
	require.NoError(t, f.store.Usage().SetTier(context.Background(), 7, domain.TierUltimate))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		other   int
	)
	for _, p := range providers {
		wg.Add(1)
		go func(providerID int64) {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), request(7, providerID, tomorrow, "11:30", fmt.Sprintf("pay-%d", providerID)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrConflictsWithOtherProvider):
				other++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(p.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 9, other)
	assert.Equal(t, 1, usage(t, f, 7))
}

// racingRepo имитирует проигранную гонку на уникальном индексе
type racingRepo struct {
	*memory.BookingRepository
	createErr error
	winner    *domain.Booking
	reads     int
}

func (r *racingRepo) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	return nil, r.createErr
}

func (r *racingRepo) GetByPaymentRef(ctx context.Context, ref string) (*domain.Booking, error) {
	r.reads++
	if r.reads > 1 && r.winner != nil {
		return r.winner, nil
	}
	return nil, bookingRepo.ErrBookingNotFound
}

func newRacingUseCase(t *testing.T, repo *racingRepo) (*UseCase, *memory.Store) {
	t.Helper()
	f := newFixture(t)
	repo.BookingRepository = f.store.Bookings()
	uc := NewUseCase(
		repo,
		f.store.Usage(),
		f.uc.schedules,
		f.store.TxManager(),
		events.Noop{},
		nopMetrics{},
		Settings{Catalog: testCatalog},
		logger.NewNop(),
	).WithTimeProvider(fixedClock{now: testNow})
	return uc, f.store
}

func TestExecute_SlotRaceFallsBackToTakenByOthers(t *testing.T) {
	uc, store := newRacingUseCase(t, &racingRepo{createErr: bookingRepo.ErrSlotTaken})

	_, err := uc.Execute(context.Background(), request(7, 1, tomorrow, "14:00", "pay-1"))
	assert.ErrorIs(t, err, ErrTakenByOthers)

	n, err := store.Usage().GetCount(context.Background(), 7, "2026-10")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestExecute_SerializationRetriesExhausted(t *testing.T) {
	serialization := &pq.Error{Code: pgerr.CodeSerializationFailure}
	tests := []struct {
		name string
		err  error
	}{
		{name: "raw driver error", err: serialization},
		{name: "wrapped by repository", err: fmt.Errorf("%w: Create - execute insert: %w", bookingRepo.ErrExecQuery, serialization)},
		{name: "deadlock", err: &pq.Error{Code: pgerr.CodeDeadlockDetected}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, store := newRacingUseCase(t, &racingRepo{createErr: tt.err})

			_, err := uc.Execute(context.Background(), request(7, 1, tomorrow, "14:00", "pay-1"))
			assert.ErrorIs(t, err, ErrSlotUnavailable)
			assert.ErrorIs(t, err, ErrTakenByOthers)
			assert.NotErrorIs(t, err, ErrInternal)

			n, err := store.Usage().GetCount(context.Background(), 7, "2026-10")
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}

func TestExecute_PaymentRefRaceReplaysWinner(t *testing.T) {
	winner := &domain.Booking{ID: 55, ClientID: 7, ProviderID: 1, Status: domain.StatusPending, PaymentRef: "pay-1"}
	uc, _ := newRacingUseCase(t, &racingRepo{createErr: bookingRepo.ErrDuplicatePaymentRef, winner: winner})

	resp, err := uc.Execute(context.Background(), request(7, 1, tomorrow, "14:00", "pay-1"))
	require.NoError(t, err)
	assert.True(t, resp.Replayed)
	assert.Equal(t, int64(55), resp.Booking.ID)
}

func TestExecute_PaymentRefRaceOtherClient(t *testing.T) {
	winner := &domain.Booking{ID: 55, ClientID: 8, ProviderID: 1, Status: domain.StatusPending, PaymentRef: "pay-1"}
	uc, _ := newRacingUseCase(t, &racingRepo{createErr: bookingRepo.ErrDuplicatePaymentRef, winner: winner})

	_, err := uc.Execute(context.Background(), request(7, 1, tomorrow, "14:00", "pay-1"))
	assert.ErrorIs(t, err, ErrPaymentRefConflict)
}

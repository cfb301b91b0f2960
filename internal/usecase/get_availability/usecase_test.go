package get_availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ConsultationService/internal/integrations/providerdirectory"
	"github.com/m04kA/SMC-ConsultationService/internal/service/schedule"
	"github.com/m04kA/SMC-ConsultationService/pkg/logger"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var (
	testNow  = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
	today    = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	tomorrow = today.AddDate(0, 0, 1)
)

func newTestUseCase(t *testing.T, index AvailabilityIndex) (*UseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	if index == nil {
		index = store.Bookings()
	}
	dir := providerdirectory.NewStatic([]domain.Provider{
		{ID: 1, UserID: 101, Name: "Anna Petrova", IsActive: true},
		{ID: 2, UserID: 102, Name: "Boris Smirnov", IsActive: true},
	})
	schedules := schedule.NewService(store.Schedules(), dir, nil, logger.NewNop())
	uc := NewUseCase(index, schedules, time.UTC, logger.NewNop()).WithTimeProvider(fixedClock{now: testNow})
	return uc, store
}

func seed(t *testing.T, store *memory.Store, clientID, providerID int64, name, start, ref string) {
	t.Helper()
	_, err := store.Bookings().Create(context.Background(), &domain.Booking{
		ClientID:         clientID,
		ProviderID:       providerID,
		ProviderName:     name,
		BookingDate:      tomorrow,
		StartTime:        types.TimeString(start),
		DurationMinutes:  30,
		ConsultationType: domain.ConsultationOnline,
		Status:           domain.StatusPending,
		PaymentRef:       ref,
		PeriodKey:        "2026-10",
	})
	require.NoError(t, err)
}

func viewAt(t *testing.T, slots []domain.SlotView, start string) domain.SlotView {
	t.Helper()
	for _, s := range slots {
		if s.StartTime == types.TimeString(start) {
			return s
		}
	}
	t.Fatalf("slot %s not found", start)
	return domain.SlotView{}
}

func TestExecute_MarksEverySlot(t *testing.T) {
	uc, store := newTestUseCase(t, nil)
	seed(t, store, 7, 1, "Anna Petrova", "10:00", "a")
	seed(t, store, 8, 1, "Anna Petrova", "12:00", "b")
	seed(t, store, 7, 2, "Boris Smirnov", "16:00", "c")

	resp, err := uc.Execute(context.Background(), &Request{ClientID: 7, ProviderID: 1, Date: tomorrow})
	require.NoError(t, err)

	assert.Len(t, resp.CandidateSlots, 22)
	assert.Len(t, resp.Slots, 22)
	assert.ElementsMatch(t, []types.TimeString{"10:00", "12:00"}, resp.ProviderBusy)
	assert.Len(t, resp.ClientConflicts, 2)

	assert.Equal(t, domain.OutcomeAlreadyBookedBySelf, viewAt(t, resp.Slots, "10:00").Outcome)
	assert.Equal(t, domain.OutcomeTakenByOthers, viewAt(t, resp.Slots, "12:00").Outcome)

	other := viewAt(t, resp.Slots, "16:00")
	assert.Equal(t, domain.OutcomeConflictsWithOtherProvider, other.Outcome)
	require.NotNil(t, other.ConflictingProviderName)
	assert.Equal(t, "Boris Smirnov", *other.ConflictingProviderName)
	assert.Equal(t, domain.DayPartAfternoon, other.DayPart)

	free := viewAt(t, resp.Slots, "19:30")
	assert.Equal(t, domain.OutcomeAvailable, free.Outcome)
	assert.Equal(t, domain.DayPartEvening, free.DayPart)
}

func TestExecute_TodayDropsElapsedSlots(t *testing.T) {
	uc, _ := newTestUseCase(t, nil)

	resp, err := uc.Execute(context.Background(), &Request{ClientID: 7, ProviderID: 1, Date: today})
	require.NoError(t, err)
	require.NotEmpty(t, resp.CandidateSlots)
	assert.Equal(t, types.TimeString("10:30"), resp.CandidateSlots[0])

	resp, err = uc.Execute(context.Background(), &Request{ClientID: 7, ProviderID: 1, Date: today.AddDate(0, 0, -1)})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_Errors(t *testing.T) {
	uc, _ := newTestUseCase(t, nil)
	ctx := context.Background()

	_, err := uc.Execute(ctx, &Request{ClientID: 7, ProviderID: 99, Date: tomorrow})
	assert.ErrorIs(t, err, ErrProviderNotFound)

	_, err = uc.Execute(ctx, &Request{ClientID: 0, ProviderID: 1, Date: tomorrow})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(ctx, &Request{ClientID: 7, ProviderID: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type failingIndex struct{ AvailabilityIndex }

func (failingIndex) BookedSlotsForClient(context.Context, int64, time.Time) ([]domain.ClientSlot, error) {
	return nil, errors.New("connection refused")
}

func TestExecute_IndexFailure(t *testing.T) {
	store := memory.NewStore()
	uc, _ := newTestUseCase(t, failingIndex{AvailabilityIndex: store.Bookings()})

	_, err := uc.Execute(context.Background(), &Request{ClientID: 7, ProviderID: 1, Date: tomorrow})
	assert.ErrorIs(t, err, ErrInternal)
}

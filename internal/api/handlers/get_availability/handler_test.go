package get_availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	getAvailability "github.com/m04kA/SMC-ConsultationService/internal/usecase/get_availability"
	"github.com/m04kA/SMC-ConsultationService/pkg/logger"
	"github.com/m04kA/SMC-ConsultationService/pkg/ptr"
	"github.com/m04kA/SMC-ConsultationService/pkg/types"
)

type stubUseCase struct {
	resp *getAvailability.Response
	err  error
	got  *getAvailability.Request
}

func (s *stubUseCase) Execute(_ context.Context, req *getAvailability.Request) (*getAvailability.Response, error) {
	s.got = req
	return s.resp, s.err
}

func serve(uc *stubUseCase, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Handle("/providers/{providerId}/availability",
		middleware.Auth(http.HandlerFunc(NewHandler(uc, logger.NewNop()).Handle)))

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(middleware.UserIDHeader, "7")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_OK(t *testing.T) {
	date := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	uc := &stubUseCase{resp: &getAvailability.Response{
		Date:           date,
		ProviderID:     1,
		Schedule:       &domain.ProviderSchedule{SlotStepMinutes: 30},
		CandidateSlots: []types.TimeString{"09:00", "09:30"},
		ProviderBusy:   []types.TimeString{},
		ClientConflicts: []domain.ClientSlot{
			{StartTime: "09:30", ProviderID: 2, ProviderName: "Boris"},
		},
		Slots: []domain.SlotView{
			{StartTime: "09:00", DayPart: domain.DayPartMorning, Outcome: domain.OutcomeAvailable},
			{
				StartTime:               "09:30",
				DayPart:                 domain.DayPartMorning,
				Outcome:                 domain.OutcomeConflictsWithOtherProvider,
				ConflictingProviderID:   ptr.Ptr(int64(2)),
				ConflictingProviderName: ptr.Ptr("Boris"),
			},
		},
	}}

	rec := serve(uc, "/providers/1/availability?date=2026-10-18")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), uc.got.ClientID)
	assert.Equal(t, date, uc.got.Date)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-10-18", resp.Date)
	assert.Equal(t, 30, resp.SlotStepMinutes)
	assert.Equal(t, []string{"09:00", "09:30"}, resp.CandidateSlots)
	assert.Empty(t, resp.ProviderBusy)
	require.Len(t, resp.Slots, 2)
	assert.Equal(t, "available", resp.Slots[0].Status)
	assert.Equal(t, "conflicts_with_other_provider", resp.Slots[1].Status)
	require.NotNil(t, resp.Slots[1].ConflictingProviderName)
	assert.Equal(t, "Boris", *resp.Slots[1].ConflictingProviderName)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		err      error
		wantCode int
	}{
		{name: "bad date", target: "/providers/1/availability?date=18.10.2026", wantCode: http.StatusBadRequest},
		{name: "missing date", target: "/providers/1/availability", wantCode: http.StatusBadRequest},
		{name: "bad provider", target: "/providers/abc/availability?date=2026-10-18", wantCode: http.StatusBadRequest},
		{name: "unknown provider", target: "/providers/9/availability?date=2026-10-18", err: getAvailability.ErrProviderNotFound, wantCode: http.StatusNotFound},
		{name: "internal", target: "/providers/1/availability?date=2026-10-18", err: errors.Join(getAvailability.ErrInternal, errors.New("db down")), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(&stubUseCase{err: tt.err}, tt.target)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

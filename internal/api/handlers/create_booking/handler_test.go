package create_booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	createBooking "github.com/m04kA/SMC-ConsultationService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-ConsultationService/pkg/logger"
	"github.com/m04kA/SMC-ConsultationService/pkg/ptr"
)

type stubUseCase struct {
	resp *createBooking.Response
	err  error
	got  *createBooking.Request
}

func (s *stubUseCase) Execute(_ context.Context, req *createBooking.Request) (*createBooking.Response, error) {
	s.got = req
	return s.resp, s.err
}

const validBody = `{"providerId":1,"date":"2026-10-18","time":"14:00","consultationType":"online","amount":2500,"paymentRef":"pay-1"}`

func serve(t *testing.T, uc *stubUseCase, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := middleware.Auth(http.HandlerFunc(NewHandler(uc, logger.NewNop()).Handle))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set(middleware.UserIDHeader, "7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func booking() *domain.Booking {
	return &domain.Booking{
		ID: 11, ClientID: 7, ProviderID: 1, StartTime: "14:00",
		BookingDate: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
		Status:      domain.StatusPending,
	}
}

func TestHandle_Created(t *testing.T) {
	uc := &stubUseCase{resp: &createBooking.Response{Booking: booking(), Tier: domain.TierFree, Used: 1, Limit: 2}}
	rec := serve(t, uc, validBody)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(7), uc.got.ClientID)
	assert.Equal(t, domain.ConsultationOnline, uc.got.ConsultationType)

	var resp CreateBookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(11), resp.Booking.ID)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 2, *resp.Usage.Limit)
}

func TestHandle_Replayed(t *testing.T) {
	uc := &stubUseCase{resp: &createBooking.Response{Booking: booking(), Replayed: true}}
	rec := serve(t, uc, validBody)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantKind string
	}{
		{
			name:     "conflicts with other provider",
			body:     validBody,
			err:      &createBooking.SlotUnavailableError{Outcome: domain.OutcomeConflictsWithOtherProvider, Time: "16:00", ConflictingProviderID: ptr.Ptr(int64(2)), ConflictingProviderName: ptr.Ptr("Boris")},
			wantCode: http.StatusConflict,
			wantKind: "conflicts_with_other_provider",
		},
		{
			name:     "taken",
			body:     validBody,
			err:      &createBooking.SlotUnavailableError{Outcome: domain.OutcomeTakenByOthers, Time: "14:00"},
			wantCode: http.StatusConflict,
			wantKind: "taken_by_others",
		},
		{
			name:     "quota",
			body:     validBody,
			err:      &createBooking.QuotaError{Reason: createBooking.ErrQuotaExceeded, Tier: domain.TierFree, Used: 2, Limit: 2},
			wantCode: http.StatusConflict,
			wantKind: "quota_exceeded",
		},
		{
			name:     "advance window",
			body:     validBody,
			err:      &createBooking.QuotaError{Reason: createBooking.ErrAdvanceWindowExceeded, MaxAdvanceDays: 7},
			wantCode: http.StatusConflict,
			wantKind: "advance_window_exceeded",
		},
		{name: "payment ref", body: validBody, err: createBooking.ErrPaymentRefConflict, wantCode: http.StatusConflict, wantKind: "payment_ref_conflict"},
		{name: "invalid slot", body: validBody, err: createBooking.ErrInvalidSlot, wantCode: http.StatusBadRequest},
		{name: "provider not found", body: validBody, err: createBooking.ErrProviderNotFound, wantCode: http.StatusNotFound},
		{name: "internal", body: validBody, err: createBooking.ErrInternal, wantCode: http.StatusInternalServerError},
		{name: "bad json", body: `{"providerId":`, wantCode: http.StatusBadRequest},
		{name: "bad time", body: strings.Replace(validBody, "14:00", "2pm", 1), wantCode: http.StatusBadRequest},
		{name: "other client", body: strings.Replace(validBody, `{"providerId"`, `{"clientId":8,"providerId"`, 1), wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &stubUseCase{err: tt.err}, tt.body)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantKind != "" {
				var resp ConflictResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantKind, resp.ErrorKind)
			}
		})
	}
}

func TestHandle_MissingUser(t *testing.T) {
	h := middleware.Auth(http.HandlerFunc(NewHandler(&stubUseCase{}, logger.NewNop()).Handle))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(validBody)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

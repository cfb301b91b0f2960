package get_booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/service/bookings"
	"github.com/m04kA/SMC-ConsultationService/internal/service/bookings/models"
	"github.com/m04kA/SMC-ConsultationService/pkg/logger"
)

type stubService struct {
	resp    *models.BookingResponse
	err     error
	gotID   int64
	gotUser int64
}

func (s *stubService) GetByID(_ context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	s.gotID, s.gotUser = id, userID
	return s.resp, s.err
}

func serve(svc *stubService, target, userID string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Use(middleware.Auth)
	r.HandleFunc("/bookings/{bookingId}", NewHandler(svc, logger.NewNop()).Handle).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(middleware.UserIDHeader, userID)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_OK(t *testing.T) {
	svc := &stubService{resp: &models.BookingResponse{ID: 5, Status: "pending", StartTime: "14:00"}}
	rec := serve(svc, "/bookings/5", "7")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), svc.gotID)
	assert.Equal(t, int64(7), svc.gotUser)

	var resp models.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "14:00", resp.StartTime)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		userID   string
		err      error
		wantCode int
	}{
		{name: "missing user", target: "/bookings/5", userID: "", wantCode: http.StatusUnauthorized},
		{name: "bad id", target: "/bookings/0", userID: "7", wantCode: http.StatusBadRequest},
		{name: "not found", target: "/bookings/5", userID: "7", err: bookings.ErrBookingNotFound, wantCode: http.StatusNotFound},
		{name: "foreign booking", target: "/bookings/5", userID: "8", err: bookings.ErrAccessDenied, wantCode: http.StatusForbidden},
		{name: "internal", target: "/bookings/5", userID: "7", err: fmt.Errorf("%w: %w", bookings.ErrInternal, errors.New("db down")), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(&stubService{err: tt.err}, tt.target, tt.userID)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

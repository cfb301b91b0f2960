package get_client_usage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/service/subscriptions"
	"github.com/m04kA/SMC-ConsultationService/internal/service/subscriptions/models"
	"github.com/m04kA/SMC-ConsultationService/pkg/logger"
	"github.com/m04kA/SMC-ConsultationService/pkg/ptr"
)

type stubService struct {
	resp *models.UsageResponse
	err  error
}

func (s *stubService) GetUsage(_ context.Context, _ int64, _ int64) (*models.UsageResponse, error) {
	return s.resp, s.err
}

func serve(svc *stubService, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.Use(middleware.Auth)
	r.HandleFunc("/clients/{clientId}/usage", NewHandler(svc, logger.NewNop()).Handle).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(middleware.UserIDHeader, "7")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_OK(t *testing.T) {
	svc := &stubService{resp: &models.UsageResponse{
		ClientID: 7, Tier: "free", PeriodKey: "2026-10", Used: 1, Limit: ptr.Ptr(2), Remaining: ptr.Ptr(1), MaxAdvanceDays: 7,
	}}
	rec := serve(svc, "/clients/7/usage")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.UsageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-10", resp.PeriodKey)
	require.NotNil(t, resp.Remaining)
	assert.Equal(t, 1, *resp.Remaining)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		err      error
		wantCode int
	}{
		{name: "bad id", target: "/clients/abc/usage", wantCode: http.StatusBadRequest},
		{name: "other client", target: "/clients/8/usage", err: subscriptions.ErrAccessDenied, wantCode: http.StatusForbidden},
		{name: "internal", target: "/clients/7/usage", err: subscriptions.ErrInternal, wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(&stubService{err: tt.err}, tt.target)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg, "consultations")

	m.ObserveBooking("created")
	m.ObserveBooking("created")
	m.ObserveBooking("taken_by_others")
	m.ObserveQuotaDecision("free", "quota_exceeded")
	m.ObserveHTTPRequest("POST", "/api/v1/bookings", 409, 10*time.Millisecond)
	m.ObserveDBQuery("QueryContext", time.Millisecond, errors.New("boom"))
	m.IncTxRetry()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingAttempts.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingAttempts.WithLabelValues("taken_by_others")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotaDecisions.WithLabelValues("free", "quota_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/api/v1/bookings", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dbQueryErrors.WithLabelValues("QueryContext")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.txRetries))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBooking("created")
		m.ObserveHTTPRequest("GET", "/", 200, time.Second)
		m.ObserveDBQuery("ExecContext", time.Second, nil)
		m.SetDBConnections(1, 1, 0)
		m.IncTxRetry()
	})
}

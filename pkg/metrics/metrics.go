package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор prometheus-метрик сервиса
// Все методы безопасны для nil-получателя (метрики выключены)
type Metrics struct {
	service string

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	dbQueryDuration *prometheus.HistogramVec
	dbQueryErrors   *prometheus.CounterVec
	dbConnections   *prometheus.GaugeVec

	bookingAttempts *prometheus.CounterVec
	quotaDecisions  *prometheus.CounterVec
	txRetries       prometheus.Counter
}

// New регистрирует метрики в prometheus.DefaultRegisterer
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry регистрирует метрики в указанном реестре
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		service: serviceName,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		dbQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Database query errors",
			ConstLabels: constLabels,
		}, []string{"operation"}),
		dbConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_connections",
			Help:        "Database connection pool state",
			ConstLabels: constLabels,
		}, []string{"state"}),
		bookingAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_create_total",
			Help:        "Booking creation attempts by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		quotaDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_quota_decisions_total",
			Help:        "Quota gate decisions by tier",
			ConstLabels: constLabels,
		}, []string{"tier", "decision"}),
		txRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "db_tx_serialization_retries_total",
			Help:        "Serializable transactions retried after a serialization failure",
			ConstLabels: constLabels,
		}),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dbQueryDuration,
		m.dbQueryErrors,
		m.dbConnections,
		m.bookingAttempts,
		m.quotaDecisions,
		m.txRetries,
	)

	return m
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.dbQueryErrors.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) SetDBConnections(open, inUse, idle int) {
	if m == nil {
		return
	}
	m.dbConnections.WithLabelValues("open").Set(float64(open))
	m.dbConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.dbConnections.WithLabelValues("idle").Set(float64(idle))
}

// ObserveBooking outcome: created, replayed, already_booked_by_self, conflicts_with_other_provider,
// taken_by_others, quota_exceeded, advance_window_exceeded, invalid, error
func (m *Metrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveQuotaDecision(tier, decision string) {
	if m == nil {
		return
	}
	m.quotaDecisions.WithLabelValues(tier, decision).Inc()
}

func (m *Metrics) IncTxRetry() {
	if m == nil {
		return
	}
	m.txRetries.Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

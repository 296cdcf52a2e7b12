// Package metrics provides Prometheus collectors for the auth service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	tokensIssued       *prometheus.CounterVec
	authFailures       *prometheus.CounterVec
	sessionRotations   prometheus.Counter
	sessionsSwept      prometheus.Counter
	keyFetches         *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpRequestSeconds *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		tokensIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total tokens issued",
		}, []string{"kind"}),

		authFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total rejected requests by gate",
		}, []string{"gate"}),

		sessionRotations: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_session_rotations_total",
			Help: "Total successful refresh rotations",
		}),

		sessionsSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "auth_sessions_swept_total",
			Help: "Total expired sessions removed by the sweeper",
		}),

		keyFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_jwks_fetches_total",
			Help: "Total remote key set fetches",
		}, []string{"result"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "status"}),

		httpRequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auth_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

func (m *Metrics) TokenIssued(kind string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(kind).Inc()
}

func (m *Metrics) AuthFailure(gate string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(gate).Inc()
}

func (m *Metrics) SessionRotated() {
	if m == nil {
		return
	}
	m.sessionRotations.Inc()
}

func (m *Metrics) SessionsSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsSwept.Add(float64(n))
}

func (m *Metrics) KeyFetch(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.keyFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpRequestSeconds.WithLabelValues(method).Observe(elapsed.Seconds())
}

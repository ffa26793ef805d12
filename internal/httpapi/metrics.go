package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admission_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admission_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		// outcome is the auth result: ok, not_found, invalid_credentials,
		// invalid_or_expired, conflict, invalid_input, rate_limited, internal.
		outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admission_auth_outcomes_total",
				Help: "Auth operation results by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrapWriter(w)
		next.ServeHTTP(rw, r)

		path := routeLabel(r.URL.Path)
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(rw.status)).Inc()
		m.duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func (m *metrics) outcome(op, outcome string) {
	m.outcomes.WithLabelValues(op, outcome).Inc()
}

// routeLabel keeps label cardinality bounded: unknown paths collapse to one
// value.
func routeLabel(path string) string {
	switch path {
	case "/health", "/metrics",
		"/api/register", "/api/login",
		"/api/forgot-password", "/api/reset-password",
		"/api/verify-token":
		return path
	}
	return "other"
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})
}

// Package metrics holds the Prometheus collectors for the session service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
)

const namespace = "cookieauth"

// Metrics holds all collectors. Pass to components that need to record.
type Metrics struct {
	AuthnOutcomes   *prometheus.CounterVec
	AuthzDecisions  *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	Registrations   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		AuthnOutcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authn_outcomes_total",
				Help:      "Authentication pipeline outcomes per request",
			},
			[]string{"outcome"},
		),
		AuthzDecisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authz_decisions_total",
				Help:      "Route authorization decisions",
			},
			[]string{"decision"}, // allow/unauthenticated/forbidden
		),
		Logins: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Login attempts by result",
			},
			[]string{"result"}, // success/failure/error
		),
		Registrations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Registration attempts by result",
			},
			[]string{"result"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "code"},
		),
	}
}

// ObserveOutcome is an httpx.Authenticator OnOutcome hook.
func (m *Metrics) ObserveOutcome(o httpx.Outcome) {
	m.AuthnOutcomes.WithLabelValues(string(o)).Inc()
}

// ObserveDecision is an httpx.Authorize hook.
func (m *Metrics) ObserveDecision(d httpx.Decision) {
	m.AuthzDecisions.WithLabelValues(d.String()).Inc()
}

// Middleware records request durations by method and status code.
func (m *Metrics) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &codeRecorder{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(rec, r)
			m.RequestDuration.
				WithLabelValues(r.Method, strconv.Itoa(rec.code)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type codeRecorder struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (c *codeRecorder) WriteHeader(code int) {
	if !c.wroteHeader {
		c.code = code
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *codeRecorder) Unwrap() http.ResponseWriter { return c.ResponseWriter }

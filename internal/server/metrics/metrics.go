// Package metrics exposes Prometheus instrumentation for the auth endpoints.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation labels.
const (
	OpSignup = "signup"
	OpLogin  = "login"
	OpMe     = "me"
)

// Outcome labels.
const (
	OutcomeSuccess            = "success"
	OutcomeAlreadyExists      = "already_exists"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInvalidRequest     = "invalid_request"
	OutcomeInvalidToken       = "invalid_token"
	OutcomeError              = "error"
)

// Metrics holds the collectors registered for one server instance.
type Metrics struct {
	AuthRequests *prometheus.CounterVec
	HashDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers the gophauth collectors, plus Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the gophauth collectors on reg and serves g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		AuthRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_auth_requests_total",
				Help: "Total number of auth requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		HashDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gophauth_password_hash_seconds",
				Help:    "Time spent hashing or verifying passwords",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		gatherer: g,
	}

	reg.MustRegister(m.AuthRequests)
	reg.MustRegister(m.HashDuration)

	return m
}

// Record counts one request for operation with the outcome derived from err.
func (m *Metrics) Record(operation string, err error) {
	m.AuthRequests.WithLabelValues(operation, Outcome(err)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Outcome maps a service error to a label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, common.ErrorAlreadyExists):
		return OutcomeAlreadyExists
	case errors.Is(err, common.ErrorInvalidCredentials):
		return OutcomeInvalidCredentials
	case errors.Is(err, common.ErrorValidation):
		return OutcomeInvalidRequest
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return OutcomeInvalidToken
	default:
		return OutcomeError
	}
}

type instrumentedHasher struct {
	next auth.PasswordHasher
	m    *Metrics
}

// InstrumentHasher wraps h so every Hash and Verify call is timed.
func InstrumentHasher(h auth.PasswordHasher, m *Metrics) auth.PasswordHasher {
	return &instrumentedHasher{next: h, m: m}
}

func (h *instrumentedHasher) Hash(password string) (string, error) {
	defer h.observe(time.Now())
	return h.next.Hash(password)
}

func (h *instrumentedHasher) Verify(password, hash string) (bool, error) {
	defer h.observe(time.Now())
	return h.next.Verify(password, hash)
}

func (h *instrumentedHasher) observe(start time.Time) {
	h.m.HashDuration.Observe(time.Since(start).Seconds())
}

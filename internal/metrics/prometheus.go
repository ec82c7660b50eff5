// Package metrics provides Prometheus metrics for the session engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/soddle/internal/model"
)

// Label values
const (
	SessionCreated = "created"
	SessionReused  = "reused"

	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Manager owns every metric the service exports. A nil *Manager is valid and
// records nothing.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Game metrics
	sessionsStarted *prometheus.CounterVec
	guesses         *prometheus.CounterVec

	// Collaborator metrics
	ledgerSubmissions *prometheus.CounterVec
	ledgerRetries     prometheus.Counter
	storageConflicts  prometheus.Counter
	rotations         *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpPanics          *prometheus.CounterVec
}

// NewManager creates a metrics manager. Without WithRegistry it registers on
// a fresh registry so that several managers can coexist in tests.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "soddle",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionsStarted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_started_total",
		Help:      "Sessions started, by whether a new session was created or the active one reused",
	}, []string{"outcome"})

	m.guesses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "guesses_total",
		Help:      "Committed guesses by stage and whether they solved it",
	}, []string{"stage", "solved"})

	m.ledgerSubmissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_submissions_total",
		Help:      "Score submissions to the ledger by final result",
	}, []string{"result"})

	m.ledgerRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_retries_total",
		Help:      "Ledger write attempts that failed and were retried",
	})

	m.storageConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "storage_conflicts_total",
		Help:      "Mutations abandoned after exhausting concurrent update retries",
	})

	m.rotations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "competition_rotations_total",
		Help:      "Competition rotation runs by result",
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})

	m.httpPanics = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Handler panics recovered, by route",
	}, []string{"route"})
}

// Registry returns the registry the metrics are registered on
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) SessionStarted(created bool) {
	if m == nil {
		return
	}
	outcome := SessionReused
	if created {
		outcome = SessionCreated
	}
	m.sessionsStarted.WithLabelValues(outcome).Inc()
}

func (m *Manager) GuessCommitted(stage model.Stage, solved bool) {
	if m == nil {
		return
	}
	m.guesses.WithLabelValues(stage.String(), strconv.FormatBool(solved)).Inc()
}

func (m *Manager) LedgerSubmission(result string) {
	if m == nil {
		return
	}
	m.ledgerSubmissions.WithLabelValues(result).Inc()
}

func (m *Manager) LedgerRetry() {
	if m == nil {
		return
	}
	m.ledgerRetries.Inc()
}

func (m *Manager) StorageConflict() {
	if m == nil {
		return
	}
	m.storageConflicts.Inc()
}

func (m *Manager) Rotation(result string) {
	if m == nil {
		return
	}
	m.rotations.WithLabelValues(result).Inc()
}

func (m *Manager) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Manager) HTTPPanic(route string) {
	if m == nil {
		return
	}
	m.httpPanics.WithLabelValues(route).Inc()
}

// Package metrics defines the Prometheus collectors of the tracker.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cbtracker"

// Metrics holds every collector. A nil *Metrics is valid and records nothing,
// so components can run without a registry in tests.
type Metrics struct {
	StancesTotal      *prometheus.CounterVec
	ParticipantScore  *prometheus.GaugeVec
	RunDuration       prometheus.Histogram
	RunsTotal         *prometheus.CounterVec
	SnippetsIngested  *prometheus.CounterVec
	ClassifyRejected  prometheus.Counter
	CommitteeSignal   *prometheus.GaugeVec
	RequestDuration   *prometheus.HistogramVec
	RequestsTotal     *prometheus.CounterVec
	InFlightRequests  prometheus.Gauge
	SnippetsPruned    prometheus.Counter
	ParticipantErrors *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StancesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "stances_total",
			Help:      "Stances computed, by label and source.",
		}, []string{"label", "source"}),
		ParticipantScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "participant_score",
			Help:      "Latest stance score per participant and dimension.",
		}, []string{"participant", "dimension"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "run_duration_seconds",
			Help:      "Duration of full committee scoring runs.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "runs_total",
			Help:      "Committee scoring runs, by status.",
		}, []string{"status"}),
		ParticipantErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "participant_errors_total",
			Help:      "Participants that failed to score, by participant.",
		}, []string{"participant"}),
		SnippetsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snippets",
			Name:      "ingested_total",
			Help:      "Snippets received, by outcome.",
		}, []string{"outcome"}),
		SnippetsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snippets",
			Name:      "pruned_total",
			Help:      "Snippets deleted by retention.",
		}),
		ClassifyRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "classify_rejected_total",
			Help:      "Classify requests rejected by the rate limiter.",
		}),
		CommitteeSignal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "weighted_score",
			Help:      "Role-weighted committee score, by score kind.",
		}, []string{"kind"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		InFlightRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of HTTP requests currently being processed.",
		}),
	}

	reg.MustRegister(
		m.StancesTotal, m.ParticipantScore, m.RunDuration, m.RunsTotal, m.ParticipantErrors,
		m.SnippetsIngested, m.SnippetsPruned, m.ClassifyRejected, m.CommitteeSignal,
		m.RequestDuration, m.RequestsTotal, m.InFlightRequests,
	)
	return m
}

// ObserveStance records one computed stance.
func (m *Metrics) ObserveStance(participant, label, source string, overall, policy, balanceSheet float64) {
	if m == nil {
		return
	}
	m.StancesTotal.WithLabelValues(label, source).Inc()
	m.ParticipantScore.WithLabelValues(participant, "overall").Set(overall)
	m.ParticipantScore.WithLabelValues(participant, "policy").Set(policy)
	m.ParticipantScore.WithLabelValues(participant, "balance_sheet").Set(balanceSheet)
}

// ObserveParticipantError counts a participant that could not be scored.
func (m *Metrics) ObserveParticipantError(participant string) {
	if m == nil {
		return
	}
	m.ParticipantErrors.WithLabelValues(participant).Inc()
}

// ObserveRun records a finished committee run.
func (m *Metrics) ObserveRun(d time.Duration, failed int) {
	if m == nil {
		return
	}
	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// ObserveIngest records the outcome of a snippet batch.
func (m *Metrics) ObserveIngest(added, duplicates int) {
	if m == nil {
		return
	}
	m.SnippetsIngested.WithLabelValues("added").Add(float64(added))
	m.SnippetsIngested.WithLabelValues("duplicate").Add(float64(duplicates))
}

// ObservePrune records snippets removed by retention.
func (m *Metrics) ObservePrune(n int64) {
	if m == nil {
		return
	}
	m.SnippetsPruned.Add(float64(n))
}

// ObserveClassifyRejected counts a rate-limited classify call.
func (m *Metrics) ObserveClassifyRejected() {
	if m == nil {
		return
	}
	m.ClassifyRejected.Inc()
}

// ObserveSignal records the latest committee score for kind.
func (m *Metrics) ObserveSignal(kind string, score float64) {
	if m == nil {
		return
	}
	m.CommitteeSignal.WithLabelValues(kind).Set(score)
}

// Middleware records request metrics labelled by chi route pattern.
// It skips /metrics and /health.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" || strings.HasPrefix(r.URL.Path, "/health") {
			next.ServeHTTP(w, r)
			return
		}

		m.InFlightRequests.Inc()
		defer m.InFlightRequests.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)
		m.RequestDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(r.Method, route, code).Inc()
	})
}

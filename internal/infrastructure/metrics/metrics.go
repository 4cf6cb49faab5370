// Package metrics exposes Prometheus metrics for the hours ledger, accolades,
// rankings and the event bus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/servicehours/hours-hub/internal/domain/shared"
)

const namespace = "hourshub"

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// Counters are driven by domain events, so they only move after a commit.
// ══════════════════════════════════════════════════════════════════════════════

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	EntriesLogged          prometheus.Counter
	HoursLogged            prometheus.Counter
	EntriesConfirmed       prometheus.Counter
	HoursConfirmed         prometheus.Counter
	AccoladesAwarded       *prometheus.CounterVec
	ConfirmationsRequested prometheus.Counter
	RankedStudents         prometheus.Gauge
	RankingDuration        prometheus.Histogram
	RankingFailures        prometheus.Counter
	EventHandlerDuration   *prometheus.HistogramVec
	EventHandlerErrors     *prometheus.CounterVec
}

// New creates and registers all collectors, including Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		EntriesLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "entries_logged_total",
			Help: "Number of logged hours entries.",
		}),
		HoursLogged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "hours_logged_total",
			Help: "Sum of hours across logged entries.",
		}),
		EntriesConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "entries_confirmed_total",
			Help: "Number of confirmed hours entries.",
		}),
		HoursConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "hours_confirmed_total",
			Help: "Sum of hours across confirmed entries.",
		}),
		AccoladesAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "accolades", Name: "awarded_total",
			Help: "Number of accolades awarded, by name.",
		}, []string{"name"}),
		ConfirmationsRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "confirmation", Name: "requests_total",
			Help: "Number of confirmation requests submitted by students.",
		}),
		RankedStudents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "rankings", Name: "students",
			Help: "Number of students in the last generated ranking.",
		}),
		RankingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "rankings", Name: "rebuild_duration_seconds",
			Help:    "Time taken to regenerate and publish the leaderboard.",
			Buckets: prometheus.DefBuckets,
		}),
		RankingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "rankings", Name: "rebuild_failures_total",
			Help: "Number of failed leaderboard rebuilds.",
		}),
		EventHandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "events", Name: "handler_duration_seconds",
			Help:    "Event handler execution time.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"event_type"}),
		EventHandlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "events", Name: "handler_errors_total",
			Help: "Number of failed event handler executions.",
		}, []string{"event_type"}),
	}

	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.EntriesLogged,
		m.HoursLogged,
		m.EntriesConfirmed,
		m.HoursConfirmed,
		m.AccoladesAwarded,
		m.ConfirmationsRequested,
		m.RankedStudents,
		m.RankingDuration,
		m.RankingFailures,
		m.EventHandlerDuration,
		m.EventHandlerErrors,
	)

	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the registry in exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// HandleEvent is a shared.EventHandler updating counters from domain events.
func (m *Metrics) HandleEvent(event shared.Event) error {
	switch e := event.(type) {
	case shared.HoursLoggedEvent:
		m.EntriesLogged.Inc()
		m.HoursLogged.Add(float64(e.Hours))
	case shared.HoursConfirmedEvent:
		m.EntriesConfirmed.Inc()
		m.HoursConfirmed.Add(float64(e.Hours))
	case shared.AccoladeAwardedEvent:
		m.AccoladesAwarded.WithLabelValues(e.Name).Inc()
	case shared.ConfirmationRequestedEvent:
		m.ConfirmationsRequested.Inc()
	case shared.LeaderboardUpdatedEvent:
		m.RankedStudents.Set(float64(e.TotalStudents))
	}
	return nil
}

// ObserveEventHandled implements messaging.Observer.
func (m *Metrics) ObserveEventHandled(eventType shared.EventType, duration time.Duration, err error) {
	m.EventHandlerDuration.WithLabelValues(string(eventType)).Observe(duration.Seconds())
	if err != nil {
		m.EventHandlerErrors.WithLabelValues(string(eventType)).Inc()
	}
}

// ObserveRankingRebuild records one leaderboard rebuild.
func (m *Metrics) ObserveRankingRebuild(duration time.Duration, err error) {
	m.RankingDuration.Observe(duration.Seconds())
	if err != nil {
		m.RankingFailures.Inc()
	}
}

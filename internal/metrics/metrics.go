// Package metrics provides Prometheus instrumentation for esport-ics.
//
// Metrics registered here:
//
//	esport_ics_http_requests_total        counter: upstream requests by game and outcome
//	esport_ics_matches_fetched_total      counter: records returned by the client by game
//	esport_ics_matches_skipped_total      counter: records filtered out by game and reason
//	esport_ics_pagination_ceiling_total   counter: fetches truncated at the page ceiling
//	esport_ics_calendars_written_total    counter: calendar files written by game
//	esport_ics_events_written_total       counter: events written by game
//	esport_ics_stale_calendars_total      counter: existing files treated as empty by game
//	esport_ics_run_duration_seconds       histogram: pipeline duration by game and status
//	esport_ics_last_success_timestamp     gauge: unix time of the last successful run by game
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes for HTTPRequests.
const (
	OutcomeOK          = "ok"
	OutcomeServerError = "server_error"
	OutcomeClientError = "client_error"
	OutcomeTimeout     = "timeout"
	OutcomeError       = "error"
)

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests      *prometheus.CounterVec
	MatchesFetched    *prometheus.CounterVec
	MatchesSkipped    *prometheus.CounterVec
	PaginationCeiling *prometheus.CounterVec
	CalendarsWritten  *prometheus.CounterVec
	EventsWritten     *prometheus.CounterVec
	StaleCalendars    *prometheus.CounterVec
	RunDuration       *prometheus.HistogramVec
	LastSuccess       *prometheus.GaugeVec
}

// New creates a registry with the esport-ics collectors plus the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "esport_ics_http_requests_total",
			Help: "Upstream API requests by game and outcome.",
		}, []string{"game", "outcome"}),
		MatchesFetched: f.NewCounterVec(prometheus.CounterOpts{
			Name: "esport_ics_matches_fetched_total",
			Help: "Match records returned by the schedule client.",
		}, []string{"game"}),
		MatchesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "esport_ics_matches_skipped_total",
			Help: "Match records excluded before mapping.",
		}, []string{"game", "reason"}),
		PaginationCeiling: f.NewCounterVec(prometheus.CounterOpts{
			Name: "esport_ics_pagination_ceiling_total",
			Help: "Fetches that stopped at the page ceiling.",
		}, []string{"game"}),
		CalendarsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Name: "esport_ics_calendars_written_total",
			Help: "Calendar files written.",
		}, []string{"game"}),
		EventsWritten: f.NewCounterVec(prometheus.CounterOpts{
			Name: "esport_ics_events_written_total",
			Help: "Events written across all calendar files.",
		}, []string{"game"}),
		StaleCalendars: f.NewCounterVec(prometheus.CounterOpts{
			Name: "esport_ics_stale_calendars_total",
			Help: "Existing calendar files that could not be read and were treated as empty.",
		}, []string{"game"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "esport_ics_run_duration_seconds",
			Help:    "Duration of a game pipeline run in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"game", "status"}),
		LastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "esport_ics_last_success_timestamp",
			Help: "Unix time of the last successful pipeline run.",
		}, []string{"game"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry in the text exposition format, suitable
// for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// ObserveRequest counts one upstream request attempt.
func (m *Metrics) ObserveRequest(game, outcome string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(game, outcome).Inc()
}

// ObserveFetched counts records returned by the client.
func (m *Metrics) ObserveFetched(game string, n int) {
	if m == nil {
		return
	}
	m.MatchesFetched.WithLabelValues(game).Add(float64(n))
}

// ObserveSkipped counts one record excluded for reason.
func (m *Metrics) ObserveSkipped(game, reason string) {
	if m == nil {
		return
	}
	m.MatchesSkipped.WithLabelValues(game, reason).Inc()
}

// ObserveCeiling counts one fetch truncated at the page ceiling.
func (m *Metrics) ObserveCeiling(game string) {
	if m == nil {
		return
	}
	m.PaginationCeiling.WithLabelValues(game).Inc()
}

// ObserveWrite counts one calendar file holding events events.
func (m *Metrics) ObserveWrite(game string, events int) {
	if m == nil {
		return
	}
	m.CalendarsWritten.WithLabelValues(game).Inc()
	m.EventsWritten.WithLabelValues(game).Add(float64(events))
}

// ObserveStale counts one existing calendar treated as empty.
func (m *Metrics) ObserveStale(game string) {
	if m == nil {
		return
	}
	m.StaleCalendars.WithLabelValues(game).Inc()
}

// ObserveRun records the duration and outcome of a game pipeline run.
func (m *Metrics) ObserveRun(game string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.RunDuration.WithLabelValues(game, status).Observe(d.Seconds())
	if err == nil {
		m.LastSuccess.WithLabelValues(game).SetToCurrentTime()
	}
}

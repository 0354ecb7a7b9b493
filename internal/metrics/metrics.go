// Package metrics exposes the engine's Prometheus metrics: command
// throughput, broadcast health, and archive footprint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elfiee_commands_total",
			Help: "Total number of commands processed by capability and outcome",
		},
		[]string{"cap_id", "outcome"},
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elfiee_command_duration_seconds",
			Help:    "Command processing duration in seconds by capability",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"cap_id"},
	)

	EventsAppendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "elfiee_events_appended_total",
			Help: "Total number of events appended to event stores",
		},
	)

	StaleCommandsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "elfiee_stale_commands_total",
			Help: "Total number of commands committed despite a detected vector clock conflict",
		},
	)

	BroadcastDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "elfiee_broadcast_dropped_total",
			Help: "Total number of state changes dropped because a subscriber's buffer was full",
		},
	)

	EnginesRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "elfiee_engines_running",
			Help: "Number of archive engines currently running in this process",
		},
	)

	BlocksTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "elfiee_blocks_total",
			Help: "Number of blocks in a loaded archive, by block_type",
		},
		[]string{"file_id", "block_type"},
	)
)

func init() {
	prometheus.MustRegister(
		CommandsTotal,
		CommandDuration,
		EventsAppendedTotal,
		StaleCommandsTotal,
		BroadcastDroppedTotal,
		EnginesRunning,
		BlocksTotal,
	)
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a small helper for timing an operation and recording it into a
// histogram once it completes.
type Timer struct{ start time.Time }

// NewTimer starts a timer.
func NewTimer() *Timer { return &Timer{start: time.Now()} }

// ObserveDurationVec records the elapsed time into a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

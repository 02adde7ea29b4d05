// Package metrics defines Prometheus metrics for the viewer command core.
//
// All collectors are registered with Registry, a dedicated registry the CLI
// gathers from when metrics output is requested.
//
// Metric naming follows Prometheus conventions:
//   - viewercore_ prefix for all metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
)

var (
	// Registry holds every viewercore collector.
	Registry = prometheus.NewRegistry()

	// CommandsTotal counts dispatched commands by name and outcome.
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewercore_commands_total",
			Help: "Total number of dispatched commands by command and outcome.",
		},
		[]string{"command", "outcome"},
	)

	// CommandDurationSeconds is a histogram of handler duration by command.
	CommandDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "viewercore_command_duration_seconds",
			Help:    "Duration of command handlers in seconds.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"command"},
	)

	// SegmentationsCreatedTotal counts segmentations registered through the core.
	SegmentationsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "viewercore_segmentations_created_total",
			Help: "Total segmentations created for display sets.",
		},
	)

	// RendersTotal counts viewport renders by viewport kind.
	RendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "viewercore_renders_total",
			Help: "Total viewport renders by viewport kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		CommandsTotal,
		CommandDurationSeconds,
		SegmentationsCreatedTotal,
		RendersTotal,
	)
}

// RecordDispatch records a single dispatched command.
func RecordDispatch(command, outcome string, duration time.Duration) {
	CommandsTotal.WithLabelValues(command, outcome).Inc()
	if outcome != OutcomeNotFound {
		CommandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
	}
}

// RecordSegmentationCreated records a new segmentation.
func RecordSegmentationCreated() {
	SegmentationsCreatedTotal.Inc()
}

// RecordRender records a viewport render.
func RecordRender(kind string) {
	RendersTotal.WithLabelValues(kind).Inc()
}

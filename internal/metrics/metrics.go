// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every pktinfo metric. It is kept apart from the default
// registry so dumps contain only run counters.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// FramesTotal counts frames read from capture files by decode result
	FramesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktinfo_frames_total",
			Help: "Total number of frames read from capture files",
		},
		[]string{"result"},
	)

	// SkippedTotal counts frames that produced no record, by reason
	SkippedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktinfo_skipped_frames_total",
			Help: "Total number of frames skipped by the decoder",
		},
		[]string{"reason"},
	)

	// FilterDecisionsTotal counts filter verdicts by mode
	FilterDecisionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktinfo_filter_decisions_total",
			Help: "Total number of filter decisions",
		},
		[]string{"mode", "verdict"},
	)

	// RunsTotal counts completed runs by mode and status
	RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktinfo_runs_total",
			Help: "Total number of extraction runs",
		},
		[]string{"mode", "status"},
	)

	// RunDurationSeconds measures wall time of a run
	RunDurationSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pktinfo_run_duration_seconds",
			Help:    "Duration of extraction runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		},
		[]string{"mode"},
	)
)

// Label values
const (
	ResultDecoded = "decoded"
	ResultSkipped = "skipped"

	VerdictAccepted = "accepted"
	VerdictRejected = "rejected"

	StatusOK    = "ok"
	StatusError = "error"
)

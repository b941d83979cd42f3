package pipeline

import (
	"errors"
	"time"

	"firestige.xyz/pktinfo/internal/core"
	"firestige.xyz/pktinfo/internal/metrics"
)

// Skip reasons used in Stats and metric labels.
const (
	SkipTooShort    = "too_short"
	SkipNotIPv4     = "not_ipv4"
	SkipNotTCP      = "not_tcp"
	SkipUnsupported = "unsupported_proto"
	SkipOther       = "other"
)

// Stats describes one run. It is owned by the run that produced it.
type Stats struct {
	Mode     string
	Frames   uint64
	Decoded  uint64
	Skipped  map[string]uint64
	Accepted uint64
	Rejected uint64
	// Truncated is set when the capture ended on an unreadable frame.
	Truncated bool
	Duration  time.Duration
}

func newStats(mode string) *Stats {
	return &Stats{Mode: mode, Skipped: make(map[string]uint64)}
}

// SkippedTotal sums skips over all reasons.
func (s *Stats) SkippedTotal() uint64 {
	var n uint64
	for _, v := range s.Skipped {
		n += v
	}
	return n
}

func (s *Stats) skip(err error) {
	s.Skipped[skipReason(err)]++
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, core.ErrPacketTooShort):
		return SkipTooShort
	case errors.Is(err, core.ErrNotIPv4):
		return SkipNotIPv4
	case errors.Is(err, core.ErrNotTCP):
		return SkipNotTCP
	case errors.Is(err, core.ErrUnsupportedProto):
		return SkipUnsupported
	default:
		return SkipOther
	}
}

func (s *Stats) fields() map[string]interface{} {
	return map[string]interface{}{
		"mode":      s.Mode,
		"frames":    s.Frames,
		"decoded":   s.Decoded,
		"skipped":   s.SkippedTotal(),
		"accepted":  s.Accepted,
		"rejected":  s.Rejected,
		"truncated": s.Truncated,
		"duration":  s.Duration.String(),
	}
}

// publish adds the run's counters to the process-wide Prometheus metrics.
func (s *Stats) publish(runErr error) {
	metrics.FramesTotal.WithLabelValues(metrics.ResultDecoded).Add(float64(s.Decoded))
	metrics.FramesTotal.WithLabelValues(metrics.ResultSkipped).Add(float64(s.SkippedTotal()))
	for reason, n := range s.Skipped {
		metrics.SkippedTotal.WithLabelValues(reason).Add(float64(n))
	}
	if s.Mode != ModeNone {
		metrics.FilterDecisionsTotal.WithLabelValues(s.Mode, metrics.VerdictAccepted).Add(float64(s.Accepted))
		metrics.FilterDecisionsTotal.WithLabelValues(s.Mode, metrics.VerdictRejected).Add(float64(s.Rejected))
	}

	status := metrics.StatusOK
	if runErr != nil {
		status = metrics.StatusError
	}
	metrics.RunsTotal.WithLabelValues(s.Mode, status).Inc()
	metrics.RunDurationSeconds.WithLabelValues(s.Mode).Observe(s.Duration.Seconds())
}

// Package pipeline drives capture files through the decoder and an
// optional filter into an ordered list of packet records.
package pipeline

import (
	"time"

	"firestige.xyz/pktinfo/internal/core"
	"firestige.xyz/pktinfo/internal/core/decoder"
	"firestige.xyz/pktinfo/internal/filter"
	"firestige.xyz/pktinfo/internal/log"
	"firestige.xyz/pktinfo/internal/source/file"
)

// Run modes, also used as metric labels.
const (
	ModeNone      = "none"
	ModeNative    = "native"
	ModePredicate = "predicate"
	ModeBPF       = "bpf"
)

// AcceptFunc judges one decoded record. An error aborts the run.
type AcceptFunc func(rec core.PacketRecord) (bool, error)

// Result is the output of a completed run.
type Result struct {
	Records []core.PacketRecord
	Stats   Stats
}

// Runner executes runs. It holds no per-run state and may be shared.
type Runner struct {
	extractor decoder.Extractor
	logger    log.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithDecoder replaces the standard Ethernet/IPv4/TCP extractor.
func WithDecoder(e decoder.Extractor) Option {
	return func(r *Runner) {
		r.extractor = e
	}
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(l log.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.extractor == nil {
		r.extractor = decoder.Standard()
	}
	return r
}

func (r *Runner) getLogger() log.Logger {
	if r.logger != nil {
		return r.logger
	}
	return log.GetLogger()
}

// Collect returns every TCP/IPv4 record in path, in capture order.
func (r *Runner) Collect(path string) ([]core.PacketRecord, error) {
	res, err := r.Run(path, ModeNone, nil)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// CollectWithFilter keeps the records accepted by f.
func (r *Runner) CollectWithFilter(path string, f *filter.PortFilter) ([]core.PacketRecord, error) {
	res, err := r.Run(path, ModeNative, func(rec core.PacketRecord) (bool, error) {
		return f.Accepts(rec), nil
	})
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// CollectWithPredicate keeps the records accepted by p. The predicate is
// called exactly once per decoded record, in capture order. A predicate
// failure aborts the run with a *core.FilterInvocationError and no records.
func (r *Runner) CollectWithPredicate(path string, p filter.Predicate) ([]core.PacketRecord, error) {
	res, err := r.Run(path, predicateMode(p), r.PredicateAccept(p))
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// PredicateAccept adapts p to an AcceptFunc. When p also reports its ports,
// they are queried after each verdict for diagnostics only.
func (r *Runner) PredicateAccept(p filter.Predicate) AcceptFunc {
	reporter, _ := p.(filter.PortsReporter)
	return func(rec core.PacketRecord) (bool, error) {
		ok, err := filter.AcceptRecord(p, rec)
		if err != nil {
			return false, err
		}
		if reporter != nil {
			if _, perr := reporter.Ports(); perr != nil {
				r.getLogger().WithError(perr).Debug("predicate ports query failed")
			}
		}
		return ok, nil
	}
}

func predicateMode(p filter.Predicate) string {
	if _, ok := p.(*filter.BPFPredicate); ok {
		return ModeBPF
	}
	return ModePredicate
}

// Run reads path once and collects the records for which accept returns
// true. A nil accept keeps every record. Open and parse failures are
// returned as *core.CaptureError; a frame that cannot be read ends the run
// early with the records gathered so far.
func (r *Runner) Run(path, mode string, accept AcceptFunc) (*Result, error) {
	start := time.Now()
	stats := newStats(mode)
	logger := r.getLogger()

	reader, err := file.Open(path)
	if err != nil {
		stats.Duration = time.Since(start)
		stats.publish(err)
		return nil, err
	}
	defer reader.Close()

	logger.WithFields(map[string]interface{}{
		"path":   reader.Path(),
		"mode":   mode,
		"format": reader.Format(),
	}).Debug("run started")

	var records []core.PacketRecord
	for {
		frame, ok := reader.Next()
		if !ok {
			break
		}
		stats.Frames = uint64(reader.Count())

		rec, err := r.extractor.Extract(frame)
		if err != nil {
			stats.skip(err)
			if logger.IsTraceEnabled() {
				logger.WithError(err).WithField("frame", stats.Frames).Trace("frame skipped")
			}
			continue
		}
		stats.Decoded++

		if accept != nil {
			keep, err := accept(rec)
			if err != nil {
				stats.Duration = time.Since(start)
				stats.publish(err)
				logger.WithFields(stats.fields()).WithError(err).Error("run aborted by filter")
				return nil, err
			}
			if !keep {
				stats.Rejected++
				continue
			}
			stats.Accepted++
		}
		records = append(records, rec)
	}

	stats.Truncated = reader.Err() != nil
	stats.Duration = time.Since(start)
	stats.publish(nil)
	logger.WithFields(stats.fields()).Info("run finished")

	return &Result{Records: records, Stats: *stats}, nil
}

var defaultRunner = New()

// Collect runs Runner.Collect with the default runner.
func Collect(path string) ([]core.PacketRecord, error) {
	return defaultRunner.Collect(path)
}

// CollectWithFilter runs Runner.CollectWithFilter with the default runner.
func CollectWithFilter(path string, f *filter.PortFilter) ([]core.PacketRecord, error) {
	return defaultRunner.CollectWithFilter(path, f)
}

// CollectWithPredicate runs Runner.CollectWithPredicate with the default runner.
func CollectWithPredicate(path string, p filter.Predicate) ([]core.PacketRecord, error) {
	return defaultRunner.CollectWithPredicate(path, p)
}

package coverage

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/covtrace/internal/replay"
)

// Options configures a coverage run.
type Options struct {
	// Async offloads checkpoint merges from the driver goroutine,
	// keeping at most one merge task outstanding at a time.
	Async bool

	// Log receives diagnostics for dropped segments. Defaults to stderr.
	Log io.Writer
}

// Run owns all state for one coverage-gathering pass over a trace: the
// completed-segment queue, the aggregator with its global coverage set,
// and the optional async offload slot. It implements replay.Observer, so
// it plugs directly into a replay.Driver.
//
// A Run is single-use: construct, Execute (or drive the Observer
// callbacks manually and Finalize), then read the results.
type Run struct {
	opts  Options
	queue *Queue
	stats *Stats
	agg   *Aggregator
	off   *Offload

	// aborted is set once a checkpoint has failed; sinks then signal
	// the driver to stop replaying.
	aborted atomic.Bool
}

// NewRun creates a run with the given options.
func NewRun(opts Options) *Run {
	if opts.Log == nil {
		opts.Log = os.Stderr
	}

	queue := &Queue{}
	stats := NewStats()
	agg := NewAggregator(queue, stats)

	return &Run{
		opts:  opts,
		queue: queue,
		stats: stats,
		agg:   agg,
		off:   NewOffload(agg),
	}
}

// Result is the outcome of a completed coverage run.
type Result struct {
	Status          replay.Status
	Ranges          []Range
	TotalBytes      uint64
	DroppedSegments int64
	Duration        time.Duration
	Stats           *Snapshot
}

// Execute replays the trace through this run and flushes all remaining
// segments with an end-of-trace checkpoint. A non-nil error means the run
// failed at the run level; segment-local failures only show up as
// DroppedSegments on the result.
func (r *Run) Execute(ctx context.Context, driver replay.Driver) (*Result, error) {
	start := time.Now()

	status, err := driver.Replay(ctx, r)

	// Best-effort final flush even when the replay itself failed.
	end := driver.Lifetime().Last
	if !end.Valid() {
		end = replay.PositionMax
	}
	if ferr := r.Finalize(end); err == nil {
		err = ferr
	}
	if err != nil {
		status = replay.StatusFailed
	}

	ranges := r.Ranges()
	return &Result{
		Status:          status,
		Ranges:          ranges,
		TotalBytes:      TotalBytes(ranges),
		DroppedSegments: r.DroppedSegments(),
		Duration:        time.Since(start),
		Stats:           r.stats.GetSnapshot(),
	}, err
}

// BeginSegment hands a fresh thread-local sink to a replay worker.
func (r *Run) BeginSegment(threadID int) replay.SegmentSink {
	return &segmentSink{run: r, collector: NewCollector(threadID)}
}

// OnProgress consumes completed segments up to the watermark, either
// synchronously on the caller's goroutine or through the offload slot.
func (r *Run) OnProgress(watermark replay.Position) error {
	var err error
	if r.opts.Async {
		err = r.off.Checkpoint(watermark)
	} else {
		err = runCheckpoint(r.agg, watermark)
	}
	if err != nil {
		r.aborted.Store(true)
	}
	return err
}

// Finalize awaits any outstanding merge task and runs one last
// synchronous checkpoint at the end-of-trace watermark, flushing every
// queued and deferred segment. Must be called exactly once, after the
// driver has returned.
func (r *Run) Finalize(end replay.Position) error {
	if !end.Valid() {
		end = replay.PositionMax
	}
	if r.opts.Async {
		return r.off.Flush(end)
	}
	return runCheckpoint(r.agg, end)
}

// Ranges returns a copy of the global coverage set.
func (r *Run) Ranges() []Range {
	global := r.agg.Ranges()
	out := make([]Range, len(global))
	copy(out, global)
	return out
}

// DroppedSegments returns how many segments were lost to hand-off
// failures. A run with drops still reports success at the API level; the
// count is how callers tell a degraded run from a complete one.
func (r *Run) DroppedSegments() int64 {
	return r.stats.Dropped()
}

// Stats returns the run's instrumentation collector.
func (r *Run) Stats() *Stats {
	return r.stats
}

// segmentSink adapts one Collector to the replay.SegmentSink contract and
// enforces the callback boundary: a panic in the event or hand-off path
// is logged and swallowed, never propagated into the replay driver. The
// affected segment's data is dropped; the replay continues.
type segmentSink struct {
	run       *Run
	collector *Collector
	failed    bool
}

func (s *segmentSink) OnAccess(pos replay.Position, addr, size uint64) (stop bool) {
	if s.failed {
		return s.run.aborted.Load()
	}
	defer func() {
		if p := recover(); p != nil {
			s.failed = true
			fmt.Fprintf(s.run.opts.Log, "covtrace: event on thread %d failed, dropping segment: %v\n",
				s.collector.threadID, p)
		}
	}()

	s.collector.Record(pos, addr, size)
	return s.run.aborted.Load()
}

func (s *segmentSink) End(end replay.Position) {
	defer func() {
		if p := recover(); p != nil {
			s.run.stats.RecordDroppedSegment()
			fmt.Fprintf(s.run.opts.Log, "covtrace: hand-off on thread %d failed, dropping segment: %v\n",
				s.collector.threadID, p)
		}
	}()

	if s.failed {
		s.run.stats.RecordDroppedSegment()
		return
	}

	rec := s.collector.Finish(end)
	s.run.stats.RecordSegment(rec)
	s.run.queue.Push(rec)
}

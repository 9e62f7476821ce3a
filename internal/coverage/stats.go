package coverage

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Stats collects instrumentation for one coverage run: checkpoint merge
// latency, per-segment range counts, and overall totals.
//
// # Thread Safety
//
// Stats is safe for concurrent use. Counters use atomic operations;
// HDR histograms are not thread-safe and are guarded by mutexes.
//
// Nothing here is touched from the per-event hot path: event and
// compaction counts ride along on the SegmentRecord and are folded in at
// hand-off, one update per segment instead of one per event.
type Stats struct {
	// Checkpoint merge latency, 1µs to 10min, 3 significant figures.
	mergeHist   *hdrhistogram.Histogram
	mergeHistMu sync.Mutex

	// Ranges per handed-off segment (after the final merge).
	segmentHist   *hdrhistogram.Histogram
	segmentHistMu sync.Mutex

	events      atomic.Int64
	segments    atomic.Int64
	merged      atomic.Int64
	checkpoints atomic.Int64
	compactions atomic.Int64
	dropped     atomic.Int64

	startTime time.Time
}

// NewStats creates an empty stats collector.
func NewStats() *Stats {
	return &Stats{
		mergeHist:   hdrhistogram.New(1, 600000000, 3),
		segmentHist: hdrhistogram.New(1, 1<<30, 3),
		startTime:   time.Now(),
	}
}

// RecordSegment folds one handed-off segment into the totals.
func (s *Stats) RecordSegment(rec *SegmentRecord) {
	s.segments.Add(1)
	s.events.Add(rec.Events)
	s.compactions.Add(int64(rec.Compactions))

	if n := int64(len(rec.Ranges)); n > 0 {
		s.segmentHistMu.Lock()
		s.segmentHist.RecordValue(n)
		s.segmentHistMu.Unlock()
	}
}

// RecordCheckpoint records one checkpoint: its duration and how many
// segments it merged into the global set.
func (s *Stats) RecordCheckpoint(duration time.Duration, mergedSegments int) {
	s.checkpoints.Add(1)
	s.merged.Add(int64(mergedSegments))

	micros := duration.Microseconds()
	if micros < 1 {
		micros = 1
	}
	s.mergeHistMu.Lock()
	s.mergeHist.RecordValue(micros)
	s.mergeHistMu.Unlock()
}

// RecordDroppedSegment counts a segment lost to a hand-off failure.
func (s *Stats) RecordDroppedSegment() {
	s.dropped.Add(1)
}

// Dropped returns the number of segments lost to hand-off failures.
func (s *Stats) Dropped() int64 {
	return s.dropped.Load()
}

// Snapshot contains a point-in-time view of the run's instrumentation.
type Snapshot struct {
	Events          int64         `json:"events"`
	Segments        int64         `json:"segments"`
	MergedSegments  int64         `json:"mergedSegments"`
	Checkpoints     int64         `json:"checkpoints"`
	Compactions     int64         `json:"compactions"`
	DroppedSegments int64         `json:"droppedSegments"`
	Elapsed         time.Duration `json:"elapsed"`

	// Checkpoint merge latency percentiles.
	MergeP50 time.Duration `json:"mergeP50"`
	MergeP90 time.Duration `json:"mergeP90"`
	MergeP99 time.Duration `json:"mergeP99"`
	MergeMax time.Duration `json:"mergeMax"`

	// Ranges per segment after hand-off.
	SegmentRangesP50 int64 `json:"segmentRangesP50"`
	SegmentRangesMax int64 `json:"segmentRangesMax"`
}

// GetSnapshot returns a point-in-time snapshot of all metrics.
func (s *Stats) GetSnapshot() *Snapshot {
	snap := &Snapshot{
		Events:          s.events.Load(),
		Segments:        s.segments.Load(),
		MergedSegments:  s.merged.Load(),
		Checkpoints:     s.checkpoints.Load(),
		Compactions:     s.compactions.Load(),
		DroppedSegments: s.dropped.Load(),
		Elapsed:         time.Since(s.startTime),
	}

	s.mergeHistMu.Lock()
	snap.MergeP50 = time.Duration(s.mergeHist.ValueAtQuantile(50)) * time.Microsecond
	snap.MergeP90 = time.Duration(s.mergeHist.ValueAtQuantile(90)) * time.Microsecond
	snap.MergeP99 = time.Duration(s.mergeHist.ValueAtQuantile(99)) * time.Microsecond
	snap.MergeMax = time.Duration(s.mergeHist.Max()) * time.Microsecond
	s.mergeHistMu.Unlock()

	s.segmentHistMu.Lock()
	snap.SegmentRangesP50 = s.segmentHist.ValueAtQuantile(50)
	snap.SegmentRangesMax = s.segmentHist.Max()
	s.segmentHistMu.Unlock()

	return snap
}

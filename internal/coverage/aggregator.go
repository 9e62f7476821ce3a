package coverage

import (
	"fmt"
	"sort"
	"time"

	"github.com/wesleyorama2/covtrace/internal/replay"
)

// Aggregator consumes completed segments at watermark checkpoints and
// merges them into the single global coverage set.
//
// # Thread Safety
//
// Aggregator itself is NOT safe for concurrent use. The global set and
// the deferred list are touched by exactly one logical actor at a time by
// construction: either the driver goroutine (synchronous checkpoints) or
// the single outstanding Offload task. The Queue it drains carries its
// own mutex.
type Aggregator struct {
	queue *Queue
	stats *Stats

	// global is sorted by Min with no two entries overlapping or
	// adjacent, after every checkpoint.
	global []Range

	// deferred holds segments seen at a checkpoint whose end position
	// was still above the watermark.
	deferred []*SegmentRecord
}

// NewAggregator creates an aggregator draining queue. stats may be nil.
func NewAggregator(queue *Queue, stats *Stats) *Aggregator {
	return &Aggregator{queue: queue, stats: stats}
}

// Checkpoint drains the queue and merges every segment whose end
// position is at or below the watermark into the global coverage set.
// Segments beyond the watermark are retained for a later checkpoint.
//
// The caller (the driver, per the Observer contract) guarantees that
// every segment ending at or below the watermark has already been handed
// off, so a retained segment is never lost: some later checkpoint's
// watermark reaches it.
func (a *Aggregator) Checkpoint(watermark replay.Position) error {
	if !watermark.Valid() {
		return fmt.Errorf("checkpoint with invalid watermark")
	}

	start := time.Now()

	batch := a.queue.TakeAll()
	if len(a.deferred) > 0 {
		batch = append(batch, a.deferred...)
		a.deferred = nil
	}

	var ready []*SegmentRecord
	for _, rec := range batch {
		if rec.EndPosition <= watermark {
			ready = append(ready, rec)
		} else {
			a.deferred = append(a.deferred, rec)
		}
	}

	// Order by end position. The merge is commutative, so this only
	// makes checkpoint behavior deterministic for debugging.
	sort.Slice(ready, func(i, j int) bool {
		return ready[i].EndPosition < ready[j].EndPosition
	})

	for _, rec := range ready {
		a.global = mergeInto(a.global, rec.Ranges)
	}

	if a.stats != nil {
		a.stats.RecordCheckpoint(time.Since(start), len(ready))
	}

	return nil
}

// Ranges returns the global coverage set. The returned slice is the
// aggregator's own storage; callers must not retain it across another
// checkpoint. Run.Ranges returns a copy for external consumers.
func (a *Aggregator) Ranges() []Range {
	return a.global
}

// Pending returns the number of segments deferred past the last watermark.
func (a *Aggregator) Pending() int {
	return len(a.deferred)
}

package coverage

import (
	"sync"

	"github.com/wesleyorama2/covtrace/internal/replay"
)

// SegmentRecord is the immutable result of one replayed segment.
// It is built by exactly one worker goroutine, handed off to the
// completed-segment queue once, and never mutated afterwards.
type SegmentRecord struct {
	// EndPosition is the segment's final trace position; the aggregator
	// compares it against checkpoint watermarks.
	EndPosition replay.Position

	// ThreadID identifies the worker that replayed the segment.
	ThreadID int

	// Ranges is sorted and fully coalesced.
	Ranges []Range

	// Events is the number of accesses observed during the segment.
	Events int64

	// Compactions is how often the collector buffer was compacted.
	Compactions int
}

// Queue is the completed-segment queue between replay workers and the
// aggregator. Many workers push; one logical consumer drains.
//
// # Thread Safety
//
// Queue is safe for concurrent use. The single mutex is held only for the
// O(1) append and detach operations, never across merge work, keeping the
// contention window on the worker side as small as possible.
type Queue struct {
	mu      sync.Mutex
	pending []*SegmentRecord
}

// Push appends a completed segment.
func (q *Queue) Push(rec *SegmentRecord) {
	q.mu.Lock()
	q.pending = append(q.pending, rec)
	q.mu.Unlock()
}

// TakeAll detaches and returns everything currently queued.
func (q *Queue) TakeAll() []*SegmentRecord {
	q.mu.Lock()
	recs := q.pending
	q.pending = nil
	q.mu.Unlock()
	return recs
}

// Len returns the number of queued segments.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

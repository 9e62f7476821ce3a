package coverage

import "github.com/wesleyorama2/covtrace/internal/replay"

// defaultCollectorCapacity is the pre-sized range buffer of a fresh
// collector. Generous on purpose: the event path must never reallocate
// for ordinary segments.
const defaultCollectorCapacity = 4096

// Collector accumulates the address ranges observed while replaying one
// segment. It is exclusively owned by the worker goroutine replaying that
// segment; there is deliberately no synchronization anywhere on this
// path, and none may be added. The event handler can run for every
// replayed instruction, so even an atomic increment here is measurable.
//
// When the buffer fills, the collector compacts it in place with Merge
// instead of growing it. Hot loops revisit the same ranges over and over,
// so compaction usually frees most of the buffer without a reallocation.
type Collector struct {
	threadID    int
	last        replay.Position
	ranges      []Range
	events      int64
	compactions int
}

// NewCollector returns a collector for a segment replayed by threadID.
// The range buffer is allocated lazily, on the first recorded event.
func NewCollector(threadID int) *Collector {
	return &Collector{threadID: threadID}
}

// Record appends one observed access [addr, addr+size) at pos.
// Zero-sized accesses cover nothing and are dropped.
func (c *Collector) Record(pos replay.Position, addr, size uint64) {
	c.last = pos
	c.events++
	if size == 0 {
		return
	}

	if c.ranges == nil {
		c.ranges = make([]Range, 0, defaultCollectorCapacity)
	} else if len(c.ranges) == cap(c.ranges) {
		c.ranges = Merge(c.ranges)
		c.compactions++
	}

	c.ranges = append(c.ranges, Range{Min: addr, Max: addr + size})
}

// LastPosition returns the most recently recorded position, or
// PositionInvalid before the first event.
func (c *Collector) LastPosition() replay.Position {
	return c.last
}

// Len returns the current number of buffered ranges.
func (c *Collector) Len() int {
	return len(c.ranges)
}

// Finish detaches the collector's state into a SegmentRecord and resets
// the collector so a subsequent segment on the same thread starts clean.
// The record's ranges are fully merged and copied into an exact-size
// slice; the oversized accumulation buffer never leaves this goroutine.
// When end is invalid the last observed position is used instead.
func (c *Collector) Finish(end replay.Position) *SegmentRecord {
	if !end.Valid() {
		end = c.last
	}

	merged := Merge(c.ranges)
	ranges := make([]Range, len(merged))
	copy(ranges, merged)

	rec := &SegmentRecord{
		EndPosition: end,
		ThreadID:    c.threadID,
		Ranges:      ranges,
		Events:      c.events,
		Compactions: c.compactions,
	}

	c.last = replay.PositionInvalid
	c.ranges = nil
	c.events = 0
	c.compactions = 0

	return rec
}

package coverage

import (
	"reflect"
	"testing"

	"github.com/wesleyorama2/covtrace/internal/replay"
)

func TestCollector_LazyInit(t *testing.T) {
	c := NewCollector(1)
	if c.Len() != 0 {
		t.Errorf("fresh collector Len = %d, want 0", c.Len())
	}
	if c.LastPosition().Valid() {
		t.Error("fresh collector has a valid position")
	}

	c.Record(5, 0x1000, 4)
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if cap(c.ranges) != defaultCollectorCapacity {
		t.Errorf("buffer capacity = %d, want %d", cap(c.ranges), defaultCollectorCapacity)
	}
	if c.LastPosition() != 5 {
		t.Errorf("LastPosition = %d, want 5", c.LastPosition())
	}
}

func TestCollector_ZeroSizeDropped(t *testing.T) {
	c := NewCollector(1)
	c.Record(5, 0x1000, 0)
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after zero-size access", c.Len())
	}
	// Position still advances.
	if c.LastPosition() != 5 {
		t.Errorf("LastPosition = %d, want 5", c.LastPosition())
	}
}

func TestCollector_SelfCompaction(t *testing.T) {
	c := NewCollector(1)

	// A hot loop: the same range far more often than the buffer holds.
	for i := 0; i < defaultCollectorCapacity*3; i++ {
		c.Record(replay.Position(i+1), 0x1000, 4)
	}

	if c.Len() > defaultCollectorCapacity {
		t.Errorf("buffer grew past capacity: Len = %d", c.Len())
	}
	if cap(c.ranges) != defaultCollectorCapacity {
		t.Errorf("buffer reallocated: cap = %d, want %d", cap(c.ranges), defaultCollectorCapacity)
	}

	rec := c.Finish(replay.Position(defaultCollectorCapacity * 3))
	want := []Range{{0x1000, 0x1004}}
	if !reflect.DeepEqual(rec.Ranges, want) {
		t.Errorf("Ranges = %v, want %v", rec.Ranges, want)
	}
	if rec.Compactions == 0 {
		t.Error("expected at least one compaction")
	}
	if rec.Events != int64(defaultCollectorCapacity*3) {
		t.Errorf("Events = %d, want %d", rec.Events, defaultCollectorCapacity*3)
	}
}

func TestCollector_FinishResets(t *testing.T) {
	c := NewCollector(7)
	c.Record(10, 0x2000, 8)
	c.Record(11, 0x3000, 8)

	rec := c.Finish(20)

	if rec.ThreadID != 7 {
		t.Errorf("ThreadID = %d, want 7", rec.ThreadID)
	}
	if rec.EndPosition != 20 {
		t.Errorf("EndPosition = %d, want 20", rec.EndPosition)
	}
	want := []Range{{0x2000, 0x2008}, {0x3000, 0x3008}}
	if !reflect.DeepEqual(rec.Ranges, want) {
		t.Errorf("Ranges = %v, want %v", rec.Ranges, want)
	}
	// Shrink-to-fit: the record must not carry the oversized buffer.
	if cap(rec.Ranges) != len(rec.Ranges) {
		t.Errorf("record capacity = %d, want %d", cap(rec.Ranges), len(rec.Ranges))
	}

	// Collector is clean for the next segment on the same thread.
	if c.Len() != 0 || c.LastPosition().Valid() {
		t.Error("collector not reset by Finish")
	}

	c.Record(30, 0x4000, 4)
	rec2 := c.Finish(40)
	if !reflect.DeepEqual(rec2.Ranges, []Range{{0x4000, 0x4004}}) {
		t.Errorf("second segment Ranges = %v", rec2.Ranges)
	}
	if rec2.Events != 1 {
		t.Errorf("second segment Events = %d, want 1", rec2.Events)
	}
}

func TestCollector_FinishInvalidEndUsesLastPosition(t *testing.T) {
	c := NewCollector(1)
	c.Record(42, 0x1000, 4)

	rec := c.Finish(replay.PositionInvalid)
	if rec.EndPosition != 42 {
		t.Errorf("EndPosition = %d, want last observed 42", rec.EndPosition)
	}
}

func TestCollector_EmptySegment(t *testing.T) {
	c := NewCollector(3)
	rec := c.Finish(100)
	if len(rec.Ranges) != 0 {
		t.Errorf("empty segment Ranges = %v, want empty", rec.Ranges)
	}
	if rec.EndPosition != 100 {
		t.Errorf("EndPosition = %d, want 100", rec.EndPosition)
	}
}

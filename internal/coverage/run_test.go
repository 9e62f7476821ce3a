package coverage

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/wesleyorama2/covtrace/internal/replay"
)

func TestRun_SynchronousPipeline(t *testing.T) {
	run := NewRun(Options{})

	// Two segments on different threads, then a checkpoint.
	s1 := run.BeginSegment(1)
	s1.OnAccess(5, 0x100, 4)
	s1.OnAccess(6, 0x104, 4)
	s1.End(10)

	s2 := run.BeginSegment(2)
	s2.OnAccess(15, 0x104, 8)
	s2.End(20)

	if err := run.OnProgress(20); err != nil {
		t.Fatalf("OnProgress: %v", err)
	}
	if err := run.Finalize(20); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	want := []Range{{0x100, 0x10c}}
	if got := run.Ranges(); !reflect.DeepEqual(got, want) {
		t.Errorf("Ranges = %v, want %v", got, want)
	}
	if run.DroppedSegments() != 0 {
		t.Errorf("DroppedSegments = %d, want 0", run.DroppedSegments())
	}
}

func TestRun_FinalizeFlushesDeferred(t *testing.T) {
	run := NewRun(Options{})

	sink := run.BeginSegment(1)
	sink.OnAccess(150, 0x100, 4)
	sink.End(200)

	// Watermark below the segment's end: nothing merged yet.
	if err := run.OnProgress(100); err != nil {
		t.Fatalf("OnProgress: %v", err)
	}
	if got := run.Ranges(); len(got) != 0 {
		t.Errorf("Ranges before flush = %v, want empty", got)
	}

	if err := run.Finalize(replay.PositionMax); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got := run.Ranges(); !reflect.DeepEqual(got, []Range{{0x100, 0x104}}) {
		t.Errorf("Ranges after flush = %v", got)
	}
}

func TestRun_HandoffPanicIsSwallowed(t *testing.T) {
	var log bytes.Buffer
	run := NewRun(Options{Log: &log})

	// A sink whose collector is gone panics inside End; the boundary
	// must swallow it and count the segment as dropped.
	sink := run.BeginSegment(1).(*segmentSink)
	sink.collector = nil
	sink.End(10)

	if run.DroppedSegments() != 1 {
		t.Errorf("DroppedSegments = %d, want 1", run.DroppedSegments())
	}
	if !strings.Contains(log.String(), "dropping segment") {
		t.Errorf("expected a dropped-segment diagnostic, got %q", log.String())
	}

	// The run is still usable.
	if err := run.Finalize(replay.PositionMax); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

func TestRun_EventPanicDropsOnlyThatSegment(t *testing.T) {
	var log bytes.Buffer
	run := NewRun(Options{Log: &log})

	bad := run.BeginSegment(1).(*segmentSink)
	bad.collector = nil
	if stop := bad.OnAccess(5, 0x100, 4); stop {
		t.Error("a segment-local failure must not stop the replay")
	}
	bad.End(10)

	good := run.BeginSegment(2)
	good.OnAccess(15, 0x200, 4)
	good.End(20)

	if err := run.Finalize(replay.PositionMax); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if run.DroppedSegments() != 1 {
		t.Errorf("DroppedSegments = %d, want 1", run.DroppedSegments())
	}
	if got := run.Ranges(); !reflect.DeepEqual(got, []Range{{0x200, 0x204}}) {
		t.Errorf("Ranges = %v, want the healthy segment only", got)
	}
}

func TestRun_AsyncMatchesSynchronous(t *testing.T) {
	for _, async := range []bool{false, true} {
		run := NewRun(Options{Async: async})

		for i := 0; i < 10; i++ {
			sink := run.BeginSegment(i)
			base := uint64(i) * 0x100
			sink.OnAccess(replay.Position(i*10+1), base, 0x80)
			sink.OnAccess(replay.Position(i*10+2), base+0x80, 0x80)
			sink.End(replay.Position((i + 1) * 10))

			if err := run.OnProgress(replay.Position((i + 1) * 10)); err != nil {
				t.Fatalf("async=%v OnProgress: %v", async, err)
			}
		}
		if err := run.Finalize(replay.PositionMax); err != nil {
			t.Fatalf("async=%v Finalize: %v", async, err)
		}

		// All per-segment ranges are adjacent, so they coalesce fully.
		want := []Range{{0, 10 * 0x100}}
		if got := run.Ranges(); !reflect.DeepEqual(got, want) {
			t.Errorf("async=%v Ranges = %v, want %v", async, got, want)
		}
	}
}

// singleSegmentDriver is a minimal in-test driver: one segment, one
// checkpoint, driven synchronously through the Observer interface.
type singleSegmentDriver struct {
	end replay.Position
}

func (d *singleSegmentDriver) Lifetime() replay.Lifetime {
	return replay.Lifetime{First: 1, Last: d.end}
}

func (d *singleSegmentDriver) Replay(ctx context.Context, obs replay.Observer) (replay.Status, error) {
	sink := obs.BeginSegment(0)
	sink.OnAccess(1, 0x1000, 16)
	sink.End(d.end)
	if err := obs.OnProgress(d.end); err != nil {
		return replay.StatusFailed, err
	}
	return replay.StatusCompleted, nil
}

func TestRun_Execute(t *testing.T) {
	run := NewRun(Options{})
	result, err := run.Execute(context.Background(), &singleSegmentDriver{end: 50})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Status != replay.StatusCompleted {
		t.Errorf("Status = %v, want completed", result.Status)
	}
	if !reflect.DeepEqual(result.Ranges, []Range{{0x1000, 0x1010}}) {
		t.Errorf("Ranges = %v", result.Ranges)
	}
	if result.TotalBytes != 16 {
		t.Errorf("TotalBytes = %d, want 16", result.TotalBytes)
	}
	if result.Stats == nil || result.Stats.Segments != 1 {
		t.Errorf("Stats = %+v, want 1 segment", result.Stats)
	}
}

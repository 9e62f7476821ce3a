package replay

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Event is one scripted trace observation.
type Event struct {
	Pos  Position
	Addr uint64
	Size uint64
}

// Segment is one scripted segment: a contiguous chunk of the trace
// replayed by a single worker.
type Segment struct {
	ThreadID int
	End      Position
	Events   []Event
}

// Script describes a whole scripted trace.
type Script struct {
	// Workers is the number of worker goroutines replaying segments.
	Workers int

	// CheckpointEvery is the number of segments replayed between
	// progress callbacks.
	CheckpointEvery int

	Segments []Segment
}

// ScriptedDriver replays a Script in-process.
//
// Segments are ordered by end position and replayed in waves of
// CheckpointEvery segments, each wave spread across Workers goroutines.
// A progress callback is issued on the driver goroutine after each wave,
// with a watermark equal to the highest end position replayed so far.
// Because a wave fully completes before the callback fires, the watermark
// guarantee of Observer.OnProgress holds by construction.
type ScriptedDriver struct {
	script  Script
	ordered []Segment
}

// NewScriptedDriver creates a driver for the given script.
// Workers and CheckpointEvery default to 4 and 8 when unset.
func NewScriptedDriver(script Script) *ScriptedDriver {
	if script.Workers <= 0 {
		script.Workers = 4
	}
	if script.CheckpointEvery <= 0 {
		script.CheckpointEvery = 8
	}

	ordered := make([]Segment, len(script.Segments))
	copy(ordered, script.Segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].End < ordered[j].End
	})

	return &ScriptedDriver{script: script, ordered: ordered}
}

// Lifetime returns the first event position and last segment end of the
// script. An empty script reports an invalid lifetime.
func (d *ScriptedDriver) Lifetime() Lifetime {
	if len(d.ordered) == 0 {
		return Lifetime{}
	}

	first := PositionMax
	for _, seg := range d.ordered {
		for _, ev := range seg.Events {
			if ev.Pos < first {
				first = ev.Pos
			}
		}
	}
	if first == PositionMax {
		first = PositionMin
	}

	return Lifetime{First: first, Last: d.ordered[len(d.ordered)-1].End}
}

// Replay runs the script to completion or to the first stop signal.
func (d *ScriptedDriver) Replay(ctx context.Context, obs Observer) (Status, error) {
	var stopped atomic.Bool

	for start := 0; start < len(d.ordered); start += d.script.CheckpointEvery {
		if err := ctx.Err(); err != nil {
			return StatusFailed, err
		}

		end := start + d.script.CheckpointEvery
		if end > len(d.ordered) {
			end = len(d.ordered)
		}
		wave := d.ordered[start:end]

		d.replayWave(ctx, wave, obs, &stopped)

		if stopped.Load() {
			return StatusStopped, nil
		}
		if err := ctx.Err(); err != nil {
			return StatusFailed, err
		}

		watermark := wave[len(wave)-1].End
		if err := obs.OnProgress(watermark); err != nil {
			return StatusFailed, fmt.Errorf("progress callback at watermark %d: %w", watermark, err)
		}
	}

	return StatusCompleted, nil
}

// replayWave replays one wave of segments across the worker pool and
// returns once every segment in the wave has ended.
func (d *ScriptedDriver) replayWave(ctx context.Context, wave []Segment, obs Observer, stopped *atomic.Bool) {
	segments := make(chan Segment)
	var wg sync.WaitGroup

	workers := d.script.Workers
	if workers > len(wave) {
		workers = len(wave)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seg := range segments {
				d.replaySegment(ctx, seg, obs, stopped)
			}
		}()
	}

	for _, seg := range wave {
		segments <- seg
	}
	close(segments)
	wg.Wait()
}

// replaySegment feeds one segment's events to a fresh sink. End is always
// called, even when the segment is cut short by a stop or cancellation.
func (d *ScriptedDriver) replaySegment(ctx context.Context, seg Segment, obs Observer, stopped *atomic.Bool) {
	sink := obs.BeginSegment(seg.ThreadID)
	defer sink.End(seg.End)

	for _, ev := range seg.Events {
		if stopped.Load() || ctx.Err() != nil {
			return
		}
		if sink.OnAccess(ev.Pos, ev.Addr, ev.Size) {
			stopped.Store(true)
			return
		}
	}
}

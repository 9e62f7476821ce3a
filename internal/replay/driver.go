// Package replay defines the contract between the coverage pipeline and a
// trace replay engine, and provides a scripted in-process driver for
// running the pipeline against trace scripts.
package replay

import "context"

// SegmentSink receives the events of a single replayed segment.
//
// A sink is obtained from Observer.BeginSegment when a segment starts and
// is called only from the worker goroutine replaying that segment. The
// driver guarantees End is called exactly once, after the last OnAccess,
// even when the segment's replay is aborted.
type SegmentSink interface {
	// OnAccess reports one observed memory access at the given trace
	// position. Positions are non-decreasing within a segment. A true
	// return asks the driver to stop the whole replay.
	OnAccess(pos Position, addr, size uint64) (stop bool)

	// End marks the segment boundary. end is the segment's final trace
	// position; after End returns the driver never touches the sink again.
	End(end Position)
}

// Observer is the set of callbacks a driver invokes during replay.
//
// BeginSegment is called from a worker goroutine as a segment's replay
// starts. OnProgress is called from the driver goroutine only, with a
// watermark position: every segment whose end position is at or below the
// watermark has already completed its End call. A non-nil error from
// OnProgress aborts the replay.
type Observer interface {
	BeginSegment(threadID int) SegmentSink
	OnProgress(watermark Position) error
}

// Status is the terminal state of a replay.
type Status int

const (
	// StatusCompleted means the whole trace was replayed.
	StatusCompleted Status = iota
	// StatusStopped means a sink requested an early stop.
	StatusStopped
	// StatusFailed means the driver or a progress callback reported an error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusStopped:
		return "stopped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Driver replays a trace, feeding observations to an Observer.
//
// Replay blocks until the trace is exhausted, a sink requests a stop, the
// context is cancelled, or an error occurs.
type Driver interface {
	// Lifetime returns the overall first/last position of the trace.
	Lifetime() Lifetime

	Replay(ctx context.Context, obs Observer) (Status, error)
}

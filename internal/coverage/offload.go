package coverage

import (
	"fmt"

	"github.com/wesleyorama2/covtrace/internal/replay"
)

// Offload runs checkpoint merges off the driver goroutine while keeping
// at most one merge task outstanding at any time.
//
// Submitting a checkpoint first awaits the previous task and observes its
// error, then spawns the new one. Because only one task (or the final
// synchronous Flush) ever runs at a time, the aggregator's state needs no
// lock of its own: the await itself serializes all mutation, and the
// channel close publishes the task's writes to the next submitter.
//
// Offload is driven from a single goroutine (the driver's progress
// callback, then the finalizer); it is not safe for concurrent submits.
type Offload struct {
	cp   checkpointer
	done chan struct{} // nil when no task is outstanding
	err  error
}

// checkpointer is the slice of Aggregator the offload drives.
type checkpointer interface {
	Checkpoint(watermark replay.Position) error
}

// NewOffload wraps agg in a single-slot asynchronous checkpoint handler.
func NewOffload(agg *Aggregator) *Offload {
	return &Offload{cp: agg}
}

// Checkpoint schedules an asynchronous merge up to watermark. It blocks
// until any previously scheduled merge has finished and returns that
// merge's error; the newly scheduled merge's error is observed by the
// next call (or by Flush).
func (o *Offload) Checkpoint(watermark replay.Position) error {
	err := o.await()

	ch := make(chan struct{})
	o.done = ch
	go func() {
		defer close(ch)
		o.err = runCheckpoint(o.cp, watermark)
	}()

	return err
}

// Flush awaits any outstanding task, then runs one final synchronous
// checkpoint. Callers pass the end-of-trace position so every segment
// still queued or deferred is consumed.
func (o *Offload) Flush(watermark replay.Position) error {
	if err := o.await(); err != nil {
		return err
	}
	return runCheckpoint(o.cp, watermark)
}

// await blocks until the outstanding task (if any) completes and returns
// its error, resetting the slot.
func (o *Offload) await() error {
	if o.done == nil {
		return nil
	}
	<-o.done
	err := o.err
	o.done = nil
	o.err = nil
	return err
}

// runCheckpoint invokes the aggregator, converting a panic (an invariant
// violation or resource exhaustion) into a run-level error rather than
// letting it escape into the driver.
func runCheckpoint(cp checkpointer, watermark replay.Position) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("checkpoint merge at watermark %d: %v", watermark, p)
		}
	}()
	return cp.Checkpoint(watermark)
}

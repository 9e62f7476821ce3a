package config

import (
	"fmt"
	"strings"

	"github.com/wesleyorama2/covtrace/internal/replay"
)

// ValidationError represents a trace script validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the whole trace script.
//
// Returns nil if valid, or a ValidationErrors containing all validation errors.
func (s *TraceScript) Validate() error {
	errs := &ValidationErrors{}

	if s.Workers <= 0 {
		errs.Add("workers", "must be at least 1")
	}
	if s.CheckpointEvery <= 0 {
		errs.Add("checkpointEvery", "must be at least 1")
	}
	if len(s.Segments) == 0 {
		errs.Add("segments", "at least one segment is required")
	}

	for i, seg := range s.Segments {
		field := fmt.Sprintf("segments[%d]", i)

		if seg.Thread < 0 {
			errs.Add(field+".thread", "must not be negative")
		}
		if !replay.Position(seg.End).Valid() {
			errs.Add(field+".end", "must be a valid position")
		}

		var lastPos uint64
		for j, ev := range seg.Events {
			evField := fmt.Sprintf("%s.events[%d]", field, j)

			if !replay.Position(ev.Pos).Valid() {
				errs.Add(evField+".pos", "must be a valid position")
			}
			if ev.Pos < lastPos {
				errs.Add(evField+".pos", fmt.Sprintf("positions must be non-decreasing (%d after %d)", ev.Pos, lastPos))
			}
			lastPos = ev.Pos

			if ev.Size == 0 {
				errs.Add(evField+".size", "must be at least 1")
			}
			if ev.Addr+ev.Size < ev.Addr {
				errs.Add(evField+".addr", "range overflows the address space")
			}
		}

		if seg.End < lastPos {
			errs.Add(field+".end", fmt.Sprintf("must not precede the last event position %d", lastPos))
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ToScript converts a validated trace script into the replay driver form.
func (s *TraceScript) ToScript() replay.Script {
	script := replay.Script{
		Workers:         s.Workers,
		CheckpointEvery: s.CheckpointEvery,
		Segments:        make([]replay.Segment, 0, len(s.Segments)),
	}

	for _, seg := range s.Segments {
		events := make([]replay.Event, 0, len(seg.Events))
		for _, ev := range seg.Events {
			events = append(events, replay.Event{
				Pos:  replay.Position(ev.Pos),
				Addr: ev.Addr,
				Size: ev.Size,
			})
		}
		script.Segments = append(script.Segments, replay.Segment{
			ThreadID: seg.Thread,
			End:      replay.Position(seg.End),
			Events:   events,
		})
	}

	return script
}

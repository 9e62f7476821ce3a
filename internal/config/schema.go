// Package config provides loading and validation of trace scripts: the
// YAML or JSON documents describing a recorded trace as segments of
// positioned memory accesses for the scripted replay driver.
package config

// TraceScript is the root of a trace script document.
//
// Example YAML:
//
//	name: "boot sequence"
//	workers: 4
//	checkpointEvery: 8
//	segments:
//	  - thread: 1
//	    end: 100
//	    events:
//	      - { pos: 10, addr: 0x401000, size: 4 }
//	      - { pos: 11, addr: 0x401004, size: 4 }
type TraceScript struct {
	// Name of the trace (for reporting).
	Name string `json:"name" yaml:"name"`

	// Workers is the number of goroutines replaying segments.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`

	// CheckpointEvery is the number of segments replayed between
	// progress checkpoints.
	CheckpointEvery int `json:"checkpointEvery,omitempty" yaml:"checkpointEvery,omitempty"`

	// Segments are the replayable chunks of the trace timeline.
	Segments []SegmentConfig `json:"segments" yaml:"segments"`
}

// SegmentConfig describes one segment of the trace.
type SegmentConfig struct {
	// Thread identifies the worker thread in the recorded execution.
	Thread int `json:"thread" yaml:"thread"`

	// End is the segment's final trace position.
	End uint64 `json:"end" yaml:"end"`

	// Events are the segment's accesses, in non-decreasing position order.
	Events []EventConfig `json:"events,omitempty" yaml:"events,omitempty"`
}

// EventConfig is one observed memory access.
type EventConfig struct {
	// Pos is the trace position of the access.
	Pos uint64 `json:"pos" yaml:"pos"`

	// Addr is the first accessed address.
	Addr uint64 `json:"addr" yaml:"addr"`

	// Size is the access size in bytes.
	Size uint64 `json:"size" yaml:"size"`
}

// Default execution parameters applied by ApplyDefaults.
const (
	DefaultWorkers         = 4
	DefaultCheckpointEvery = 8
)

// ApplyDefaults fills in unset execution parameters.
func ApplyDefaults(script *TraceScript) {
	if script.Workers <= 0 {
		script.Workers = DefaultWorkers
	}
	if script.CheckpointEvery <= 0 {
		script.CheckpointEvery = DefaultCheckpointEvery
	}
}

// traceScriptSchema validates JSON trace scripts before decoding, so a
// malformed document is rejected with a path instead of silently decoding
// to zero values.
const traceScriptSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["segments"],
  "properties": {
    "name": { "type": "string" },
    "workers": { "type": "integer", "minimum": 1 },
    "checkpointEvery": { "type": "integer", "minimum": 1 },
    "segments": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["thread", "end"],
        "properties": {
          "thread": { "type": "integer", "minimum": 0 },
          "end": { "type": "integer", "minimum": 1 },
          "events": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["pos", "addr", "size"],
              "properties": {
                "pos": { "type": "integer", "minimum": 1 },
                "addr": { "type": "integer", "minimum": 0 },
                "size": { "type": "integer", "minimum": 1 }
              },
              "additionalProperties": false
            }
          }
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wesleyorama2/covtrace/internal/coverage"
)

// Report is the machine-readable result of one coverage run. Its JSON
// form is what `covtrace query` operates on, so field names are part of
// the tool's interface.
type Report struct {
	Name        string    `json:"name,omitempty"`
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generatedAt"`

	TotalBytes      uint64 `json:"totalBytes"`
	RangeCount      int    `json:"rangeCount"`
	DroppedSegments int64  `json:"droppedSegments"`

	Ranges  []coverage.Range   `json:"ranges"`
	Grouped []GroupedRange     `json:"grouped"`
	Stats   *coverage.Snapshot `json:"stats,omitempty"`
}

// Build assembles a report from a completed run's result.
func Build(name string, result *coverage.Result) *Report {
	return &Report{
		Name:            name,
		Status:          result.Status.String(),
		GeneratedAt:     time.Now(),
		TotalBytes:      result.TotalBytes,
		RangeCount:      len(result.Ranges),
		DroppedSegments: result.DroppedSegments,
		Ranges:          result.Ranges,
		Grouped:         Group(result.Ranges),
		Stats:           result.Stats,
	}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("error encoding report: %w", err)
	}
	return nil
}

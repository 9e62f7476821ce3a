package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Formatter renders a report as colored text.
type Formatter struct {
	scheme *ColorScheme

	// ShowRanges lists every precise range instead of the grouped view.
	ShowRanges bool

	// ShowStats appends the run instrumentation section.
	ShowStats bool
}

// NewFormatter creates a text formatter. Pass noColor to disable ANSI
// colors (for piped or logged output).
func NewFormatter(noColor bool) *Formatter {
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	return &Formatter{scheme: scheme}
}

// Write renders the report to w.
func (f *Formatter) Write(w io.Writer, r *Report) error {
	var buf strings.Builder

	title := "Coverage Report"
	if r.Name != "" {
		title = fmt.Sprintf("Coverage Report: %s", r.Name)
	}
	buf.WriteString(f.scheme.Header.Sprint(title) + "\n")
	buf.WriteString(strings.Repeat("=", len(title)) + "\n\n")

	status := f.scheme.Success.Sprint(r.Status)
	if r.Status != "completed" {
		status = f.scheme.Error.Sprint(r.Status)
	}
	buf.WriteString(fmt.Sprintf("  %s %s\n", f.scheme.Label.Sprint("Status:"), status))
	buf.WriteString(fmt.Sprintf("  %s %s in %d ranges\n",
		f.scheme.Label.Sprint("Covered:"),
		f.scheme.Size.Sprint(formatBytes(r.TotalBytes)),
		r.RangeCount))
	if r.DroppedSegments > 0 {
		buf.WriteString(fmt.Sprintf("  %s %s\n",
			f.scheme.Label.Sprint("Dropped:"),
			f.scheme.Warn.Sprintf("%d segments (coverage is incomplete)", r.DroppedSegments)))
	}
	buf.WriteString("\n")

	if f.ShowRanges {
		f.writeRanges(&buf, r)
	} else {
		f.writeGrouped(&buf, r)
	}

	if f.ShowStats && r.Stats != nil {
		f.writeStats(&buf, r)
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

func (f *Formatter) writeGrouped(buf *strings.Builder, r *Report) {
	buf.WriteString(f.scheme.Header.Sprint("Covered regions") + "\n")
	for _, g := range r.Grouped {
		line := fmt.Sprintf("  %s - %s  %s",
			f.scheme.Address.Sprintf("%#012x", g.Range.Min),
			f.scheme.Address.Sprintf("%#012x", g.Range.Max),
			f.scheme.Size.Sprint(formatBytes(g.Range.Len()-g.GapBytes)))
		if g.GapCount > 0 {
			line += fmt.Sprintf("  (%d gaps, %s uncovered)", g.GapCount, formatBytes(g.GapBytes))
		}
		buf.WriteString(line + "\n")
	}
	buf.WriteString("\n")
}

func (f *Formatter) writeRanges(buf *strings.Builder, r *Report) {
	buf.WriteString(f.scheme.Header.Sprint("Covered ranges") + "\n")
	for _, rng := range r.Ranges {
		buf.WriteString(fmt.Sprintf("  %s - %s  %s\n",
			f.scheme.Address.Sprintf("%#012x", rng.Min),
			f.scheme.Address.Sprintf("%#012x", rng.Max),
			f.scheme.Size.Sprint(formatBytes(rng.Len()))))
	}
	buf.WriteString("\n")
}

func (f *Formatter) writeStats(buf *strings.Builder, r *Report) {
	s := r.Stats
	buf.WriteString(f.scheme.Header.Sprint("Run statistics") + "\n")
	buf.WriteString(fmt.Sprintf("  Events:       %d\n", s.Events))
	buf.WriteString(fmt.Sprintf("  Segments:     %d replayed, %d merged, %d dropped\n",
		s.Segments, s.MergedSegments, s.DroppedSegments))
	buf.WriteString(fmt.Sprintf("  Checkpoints:  %d\n", s.Checkpoints))
	buf.WriteString(fmt.Sprintf("  Compactions:  %d\n", s.Compactions))
	buf.WriteString(fmt.Sprintf("  Merge time:   p50=%v p90=%v p99=%v max=%v\n",
		s.MergeP50, s.MergeP90, s.MergeP99, s.MergeMax))
	buf.WriteString(fmt.Sprintf("  Elapsed:      %v\n", s.Elapsed.Round(time.Millisecond)))
	buf.WriteString("\n")
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n uint64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.2f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.2f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

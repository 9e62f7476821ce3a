package report

import (
	"strings"
	"testing"
	"time"

	"github.com/wesleyorama2/covtrace/internal/coverage"
	"github.com/wesleyorama2/covtrace/internal/replay"
)

func sampleResult() *coverage.Result {
	return &coverage.Result{
		Status:     replay.StatusCompleted,
		Ranges:     []coverage.Range{{Min: 0x1000, Max: 0x1400}, {Min: 0x2000, Max: 0x2100}},
		TotalBytes: 0x500,
		Duration:   10 * time.Millisecond,
	}
}

func TestBuild(t *testing.T) {
	rep := Build("sample", sampleResult())

	if rep.Name != "sample" {
		t.Errorf("Name = %q", rep.Name)
	}
	if rep.Status != "completed" {
		t.Errorf("Status = %q", rep.Status)
	}
	if rep.RangeCount != 2 {
		t.Errorf("RangeCount = %d, want 2", rep.RangeCount)
	}
	if rep.TotalBytes != 0x500 {
		t.Errorf("TotalBytes = %d", rep.TotalBytes)
	}
	if len(rep.Grouped) == 0 {
		t.Error("Grouped view missing")
	}
}

func TestFormatter_Text(t *testing.T) {
	rep := Build("sample", sampleResult())

	var buf strings.Builder
	formatter := NewFormatter(true)
	if err := formatter.Write(&buf, rep); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Coverage Report: sample",
		"completed",
		"0x0000001000",
		"1.25 KiB",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Dropped") {
		t.Error("report with no drops must not warn about dropped segments")
	}
}

func TestFormatter_DroppedWarning(t *testing.T) {
	result := sampleResult()
	result.DroppedSegments = 3
	rep := Build("", result)

	var buf strings.Builder
	if err := NewFormatter(true).Write(&buf, rep); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "3 segments") {
		t.Errorf("expected a dropped-segments warning:\n%s", buf.String())
	}
}

func TestFormatter_Ranges(t *testing.T) {
	rep := Build("", sampleResult())

	var buf strings.Builder
	formatter := NewFormatter(true)
	formatter.ShowRanges = true
	if err := formatter.Write(&buf, rep); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "Covered ranges") {
		t.Errorf("expected the precise range listing:\n%s", buf.String())
	}
}

func TestFormatter_Stats(t *testing.T) {
	result := sampleResult()
	result.Stats = &coverage.Snapshot{Events: 42, Segments: 2, Checkpoints: 1}
	rep := Build("", result)

	var buf strings.Builder
	formatter := NewFormatter(true)
	formatter.ShowStats = true
	if err := formatter.Write(&buf, rep); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "Run statistics") {
		t.Errorf("expected the statistics section:\n%s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	rep := Build("sample", sampleResult())

	var buf strings.Builder
	if err := rep.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	for _, want := range []string{`"totalBytes"`, `"grouped"`, `"ranges"`, `"status": "completed"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("JSON missing %s:\n%s", want, buf.String())
		}
	}
}

// Package report turns a final coverage set into human- and
// machine-readable output: a grouped view collapsing near-adjacent
// ranges, a colored text rendering, and a JSON document.
package report

import "github.com/wesleyorama2/covtrace/internal/coverage"

// Grouping thresholds. A gap below hardGapLimit always folds into the
// preceding group; a gap below softGapLimit folds only while the group's
// cumulative gap bytes stay at or below a quarter of its total span.
const (
	hardGapLimit uint64 = 64
	softGapLimit uint64 = 4096
)

// GroupedRange is one reporting entry: a span of coverage possibly
// containing small uncovered gaps.
type GroupedRange struct {
	Range    coverage.Range `json:"range"`
	GapCount int            `json:"gapCount"`
	GapBytes uint64         `json:"gapBytes"`
}

// Group collapses a sorted, coalesced coverage set into grouped entries.
// Grouping is purely presentational: the precise set is what the
// aggregator produced, but a report listing thousands of ranges separated
// by a handful of padding bytes helps nobody.
func Group(ranges []coverage.Range) []GroupedRange {
	var out []GroupedRange

	for _, r := range ranges {
		if len(out) > 0 {
			g := &out[len(out)-1]
			gap := r.Min - g.Range.Max
			if gap < hardGapLimit || (gap < softGapLimit && (g.GapBytes+gap)*4 <= r.Max-g.Range.Min) {
				g.Range.Max = r.Max
				g.GapCount++
				g.GapBytes += gap
				continue
			}
		}
		out = append(out, GroupedRange{Range: r})
	}

	return out
}

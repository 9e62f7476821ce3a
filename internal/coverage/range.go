// Package coverage implements the coverage-gathering pipeline: thread-local
// event collection, segment hand-off, and incremental merging of observed
// address ranges into one globally sorted, coalesced coverage set.
package coverage

import "sort"

// Range is a half-open interval [Min, Max) of memory addresses.
// A valid Range is non-empty: Min < Max.
type Range struct {
	Min uint64 `json:"min"`
	Max uint64 `json:"max"`
}

// Len returns the number of addresses covered by r.
func (r Range) Len() uint64 {
	return r.Max - r.Min
}

// Merge sorts, deduplicates, and coalesces rs in place and returns the
// shortened slice. Two ranges coalesce when they overlap or touch exactly
// (a.Max == b.Min). The result is sorted by Min with no two entries
// overlapping or adjacent, and covers exactly the same addresses as the
// input. Empty and single-element inputs are returned unchanged.
func Merge(rs []Range) []Range {
	if len(rs) <= 1 {
		return rs
	}

	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Min != rs[j].Min {
			return rs[i].Min < rs[j].Min
		}
		return rs[i].Max < rs[j].Max
	})

	// Single pass with a write cursor: each subsequent entry either
	// extends the entry at the cursor or becomes the next entry.
	it := 0
	for i := 1; i < len(rs); i++ {
		next := rs[i]
		if next == rs[it] {
			continue
		}
		if rs[it].Max >= next.Min {
			if next.Max > rs[it].Max {
				rs[it].Max = next.Max
			}
			continue
		}
		it++
		rs[it] = next
	}

	return rs[:it+1]
}

// mergeInto merges src into dst in place and returns the updated slice.
// Both inputs must already be sorted and coalesced (the Merge
// postcondition); the result satisfies the same invariant. The scan is
// incremental: a single cursor advances through dst as src is consumed,
// so merging a segment into a large coverage set touches only the
// affected region.
func mergeInto(dst, src []Range) []Range {
	it := 0
	for _, r := range src {
		// Skip global entries strictly before r.
		for it < len(dst) && dst[it].Max < r.Min {
			it++
		}

		if it == len(dst) || r.Max < dst[it].Min {
			dst = append(dst, Range{})
			copy(dst[it+1:], dst[it:])
			dst[it] = r
			continue
		}

		// r overlaps or touches dst[it]: extend it, then absorb any
		// following entries the extension now reaches.
		if r.Min < dst[it].Min {
			dst[it].Min = r.Min
		}
		if r.Max > dst[it].Max {
			dst[it].Max = r.Max
		}
		j := it + 1
		for j < len(dst) && dst[j].Min <= dst[it].Max {
			if dst[j].Max > dst[it].Max {
				dst[it].Max = dst[j].Max
			}
			j++
		}
		if j > it+1 {
			dst = append(dst[:it+1], dst[j:]...)
		}
	}
	return dst
}

// TotalBytes returns the number of addresses covered by a sorted,
// coalesced range set.
func TotalBytes(rs []Range) uint64 {
	var total uint64
	for _, r := range rs {
		total += r.Len()
	}
	return total
}

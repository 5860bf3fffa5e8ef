// Package interval provides half-open minute intervals and the set
// operations the availability engine is built on. A Span covers
// [Start, End) so adjacent spans never falsely overlap.
package interval

import "sort"

// Span is a half-open interval [Start, End) measured in minutes of day.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// IsEmpty reports whether the span covers no time at all.
// Empty spans are valid inputs and act as no-ops when used as blockers.
func (s Span) IsEmpty() bool {
	return s.Start >= s.End
}

// Minutes returns the length of the span.
func (s Span) Minutes() int {
	if s.IsEmpty() {
		return 0
	}
	return s.End - s.Start
}

// Overlaps reports whether two spans share at least one minute.
// Touching spans (a.End == b.Start) do not overlap.
func (s Span) Overlaps(o Span) bool {
	if s.IsEmpty() || o.IsEmpty() {
		return false
	}
	return s.Start < o.End && o.Start < s.End
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	if o.IsEmpty() {
		return false
	}
	return s.Start <= o.Start && o.End <= s.End
}

// Subtract removes any overlap with b from a, returning 0, 1 or 2 spans.
func Subtract(a, b Span) []Span {
	if a.IsEmpty() {
		return nil
	}
	if !a.Overlaps(b) {
		return []Span{a}
	}

	var out []Span
	if a.Start < b.Start {
		out = append(out, Span{Start: a.Start, End: b.Start})
	}
	if b.End < a.End {
		out = append(out, Span{Start: b.End, End: a.End})
	}
	return out
}

// SubtractAll folds Subtract over the blockers, carrying the remaining
// fragments forward. Blockers do not need to be sorted or disjoint.
func SubtractAll(a Span, blockers []Span) []Span {
	if a.IsEmpty() {
		return nil
	}

	remaining := []Span{a}
	for _, blocker := range sortedByStart(blockers) {
		if blocker.IsEmpty() {
			continue
		}
		var next []Span
		for _, fragment := range remaining {
			next = append(next, Subtract(fragment, blocker)...)
		}
		remaining = next
		if len(remaining) == 0 {
			break
		}
	}
	return remaining
}

// UnionAll merges overlapping and adjacent spans into a minimal sorted
// set. Empty spans are dropped.
func UnionAll(spans []Span) []Span {
	var merged []Span
	for _, s := range sortedByStart(spans) {
		if s.IsEmpty() {
			continue
		}
		if len(merged) > 0 && s.Start <= merged[len(merged)-1].End {
			if s.End > merged[len(merged)-1].End {
				merged[len(merged)-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

func sortedByStart(spans []Span) []Span {
	out := make([]Span, len(spans))
	copy(out, spans)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start == out[j].Start {
			return out[i].End < out[j].End
		}
		return out[i].Start < out[j].Start
	})
	return out
}

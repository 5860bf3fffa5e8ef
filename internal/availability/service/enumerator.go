package service

import (
	"wellnest/pkg/interval"
)

// EnumerateSlots walks the free spans of a day and emits every slot of
// durationMin minutes whose start lands on the step grid of its span.
// Slots starting before earliestStart are dropped; pass 0 to keep the
// whole day. A slot must fit entirely inside its span, so a fragment
// shorter than the duration yields nothing.
func EnumerateSlots(free []interval.Span, durationMin, stepMin, earliestStart int) []interval.Span {
	if durationMin <= 0 || stepMin <= 0 {
		return nil
	}

	var slots []interval.Span
	for _, span := range free {
		for start := span.Start; start+durationMin <= span.End; start += stepMin {
			if start < earliestStart {
				continue
			}
			slots = append(slots, interval.Span{Start: start, End: start + durationMin})
		}
	}
	return slots
}

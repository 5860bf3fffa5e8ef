package model

import "wellnest/pkg/interval"

// Slot is a candidate bookable window of exactly the requested service
// duration. Slot lists are advisory: they reflect a point-in-time
// snapshot and are re-validated at commit time.
type Slot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// NewSlot builds a Slot from a date string and a minute span.
func NewSlot(date string, span interval.Span) Slot {
	return Slot{
		Date:      date,
		StartTime: interval.FormatClock(span.Start),
		EndTime:   interval.FormatClock(span.End),
	}
}

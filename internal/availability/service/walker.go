package service

import (
	"time"

	"wellnest/pkg/model"
)

// HorizonEnd returns the last bookable date of the schedule's booking
// horizon, counted in calendar months from today. The horizon-end date
// itself is still offered.
func HorizonEnd(ws *model.WorkSchedule, today time.Time) time.Time {
	return today.AddDate(0, ws.BookingHorizonMonths, 0)
}

// ClampWindow narrows the requested [from, to] date range to what the
// booking horizon permits: nothing before today, nothing after the
// horizon end. The returned range is empty when from is after to.
func ClampWindow(from, to, today, horizonEnd time.Time) (time.Time, time.Time) {
	if from.Before(today) {
		from = today
	}
	if to.After(horizonEnd) {
		to = horizonEnd
	}
	return from, to
}

// WalkDates invokes fn for every date in [from, to] in order. fn returns
// false to stop early, once a slot cap is reached.
func WalkDates(from, to time.Time, fn func(date time.Time) bool) {
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		if !fn(date) {
			return
		}
	}
}

package service

import (
	"time"

	"wellnest/pkg/interval"
	"wellnest/pkg/model"
)

// ResolveDay computes the free working time of one calendar day. The
// result is the working interval minus enabled lunch breaks and minus
// every blocking appointment, as sorted disjoint spans.
//
// A disabled schedule, a vacation day, or an inactive weekday resolves
// to no availability at all.
func ResolveDay(ws *model.WorkSchedule, date time.Time, appointments []*model.Appointment) ([]interval.Span, error) {
	if !ws.Enabled {
		return nil, nil
	}
	if ws.OnVacation(date) {
		return nil, nil
	}

	day, ok := ws.DayFor(date)
	if !ok || !day.Active {
		return nil, nil
	}

	working, err := day.WorkingSpan()
	if err != nil {
		return nil, err
	}

	blockers, err := day.LunchSpans()
	if err != nil {
		return nil, err
	}
	booked, err := model.BlockingSpans(appointments)
	if err != nil {
		return nil, err
	}
	blockers = append(blockers, booked...)

	return interval.SubtractAll(working, blockers), nil
}

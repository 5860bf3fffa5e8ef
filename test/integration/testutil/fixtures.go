package testutil

import (
	"wellnest/pkg/model"
)

type WorkScheduleBuilder struct {
	ws model.WorkSchedule
}

func NewWorkScheduleBuilder(specialistID string) *WorkScheduleBuilder {
	b := &WorkScheduleBuilder{
		ws: model.WorkSchedule{
			SpecialistID:         specialistID,
			Enabled:              true,
			BookingHorizonMonths: 2,
			WorkDays:             model.DefaultWorkDays("09:00", "18:00"),
		},
	}
	return b
}

func (b *WorkScheduleBuilder) WithActiveDay(weekday int) *WorkScheduleBuilder {
	b.ws.WorkDays[weekday].Active = true
	return b
}

func (b *WorkScheduleBuilder) WithHours(weekday int, start, end string) *WorkScheduleBuilder {
	b.ws.WorkDays[weekday].StartTime = start
	b.ws.WorkDays[weekday].EndTime = end
	return b
}

func (b *WorkScheduleBuilder) WithLunch(weekday int, start, end string) *WorkScheduleBuilder {
	b.ws.WorkDays[weekday].LunchBreaks = append(b.ws.WorkDays[weekday].LunchBreaks, model.LunchBreak{
		Enabled:   true,
		StartTime: start,
		EndTime:   end,
	})
	return b
}

func (b *WorkScheduleBuilder) WithVacation(startDate, endDate, description string) *WorkScheduleBuilder {
	b.ws.Vacations = append(b.ws.Vacations, model.Vacation{
		Enabled:     true,
		StartDate:   startDate,
		EndDate:     endDate,
		Description: description,
	})
	return b
}

func (b *WorkScheduleBuilder) WithHorizon(months int) *WorkScheduleBuilder {
	b.ws.BookingHorizonMonths = months
	return b
}

func (b *WorkScheduleBuilder) Disabled() *WorkScheduleBuilder {
	b.ws.Enabled = false
	return b
}

func (b *WorkScheduleBuilder) Build() model.WorkSchedule {
	return b.ws
}

func ValidService() model.Service {
	return model.Service{
		Name:        "Deep Tissue Massage",
		Description: "Sixty minutes of focused pressure work",
		DurationMin: 60,
		Active:      true,
	}
}

func ShortService() model.Service {
	return model.Service{
		Name:        "Express Consultation",
		DurationMin: 15,
		Active:      true,
	}
}

package model

import (
	"time"

	"wellnest/pkg/interval"
)

// Weekday values follow the storage convention 0=Sunday..6=Saturday.
const (
	Sunday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// AllowedHorizonMonths enumerates how far ahead clients may be offered
// slots. A schedule must use exactly one of these values.
var AllowedHorizonMonths = []int{2, 6, 12}

// WorkSchedule is a specialist's recurring weekly availability pattern.
// It is owned by the specialist profile; the availability engine treats
// it as an immutable snapshot for the duration of one computation.
type WorkSchedule struct {
	ID                   string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	SpecialistID         string     `json:"specialist_id" bson:"specialist_id" validate:"required,min=1,max=64"`
	Enabled              bool       `json:"enabled" bson:"enabled"`
	BookingHorizonMonths int        `json:"booking_horizon_months" bson:"booking_horizon_months" validate:"oneof=2 6 12"`
	WorkDays             []WorkDay  `json:"work_days" bson:"work_days" validate:"len=7,dive"`
	Vacations            []Vacation `json:"vacations,omitempty" bson:"vacations" validate:"omitempty,dive"`
	CreatedAt            time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt            time.Time  `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// WorkDay is one weekday template. Created with the schedule, toggled
// via Active, never individually deleted.
type WorkDay struct {
	Weekday     int          `json:"weekday" bson:"weekday" validate:"min=0,max=6"`
	Active      bool         `json:"active" bson:"active"`
	StartTime   string       `json:"start_time" bson:"start_time" validate:"required,clock"`
	EndTime     string       `json:"end_time" bson:"end_time" validate:"required,clock"`
	LunchBreaks []LunchBreak `json:"lunch_breaks,omitempty" bson:"lunch_breaks" validate:"omitempty,dive"`
}

// LunchBreak is a recurring within-day pause. Both times must lie inside
// the owning WorkDay's working interval.
type LunchBreak struct {
	Enabled   bool   `json:"enabled" bson:"enabled"`
	StartTime string `json:"start_time" bson:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" bson:"end_time" validate:"required,clock"`
}

// Vacation excludes a range of calendar dates, bounds inclusive.
// Vacations are specialist-wide, not weekday-specific.
type Vacation struct {
	Enabled     bool   `json:"enabled" bson:"enabled"`
	StartDate   string `json:"start_date" bson:"start_date" validate:"required,caldate"`
	EndDate     string `json:"end_date" bson:"end_date" validate:"required,caldate"`
	Description string `json:"description,omitempty" bson:"description" validate:"omitempty,max=200"`
}

// DayFor returns the WorkDay template matching the date's weekday.
func (ws *WorkSchedule) DayFor(date time.Time) (WorkDay, bool) {
	weekday := int(date.Weekday())
	for _, day := range ws.WorkDays {
		if day.Weekday == weekday {
			return day, true
		}
	}
	return WorkDay{}, false
}

// OnVacation reports whether the date falls inside any enabled vacation
// range. Malformed dates inside a range are skipped; the validation
// boundary rejects them before a schedule is ever stored.
func (ws *WorkSchedule) OnVacation(date time.Time) bool {
	day := interval.FormatDate(date)
	for _, v := range ws.Vacations {
		if !v.Enabled {
			continue
		}
		if v.StartDate <= day && day <= v.EndDate {
			return true
		}
	}
	return false
}

// WorkingSpan parses the day's working interval.
func (d WorkDay) WorkingSpan() (interval.Span, error) {
	return interval.ParseSpan(d.StartTime, d.EndTime)
}

// LunchSpans parses the enabled lunch breaks for the day.
func (d WorkDay) LunchSpans() ([]interval.Span, error) {
	var spans []interval.Span
	for _, lb := range d.LunchBreaks {
		if !lb.Enabled {
			continue
		}
		span, err := interval.ParseSpan(lb.StartTime, lb.EndTime)
		if err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}
	return spans, nil
}

// DefaultWorkDays builds the fixed seven-day template for a new
// schedule, all days inactive until the specialist configures them.
func DefaultWorkDays(startTime, endTime string) []WorkDay {
	days := make([]WorkDay, 7)
	for weekday := Sunday; weekday <= Saturday; weekday++ {
		days[weekday] = WorkDay{
			Weekday:   weekday,
			Active:    false,
			StartTime: startTime,
			EndTime:   endTime,
		}
	}
	return days
}

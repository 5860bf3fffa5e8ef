package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"wellnest/pkg/interval"
	"wellnest/pkg/logger"
	"wellnest/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ScheduleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewScheduleValidator(log *logger.Logger) *ScheduleValidator {
	v := validator.New()

	if err := v.RegisterValidation("clock", validateClock); err != nil {
		log.Fatal("Failed to register 'clock' validator", "error", err)
	}
	if err := v.RegisterValidation("caldate", validateCalendarDate); err != nil {
		log.Fatal("Failed to register 'caldate' validator", "error", err)
	}
	v.RegisterStructValidation(validateWorkScheduleStruct, model.WorkSchedule{})

	log.Info("Schedule validator initialized successfully")

	return &ScheduleValidator{
		validate: v,
		logger:   log,
	}
}

func validateClock(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	_, err := interval.ParseClock(value)
	return err == nil
}

func validateCalendarDate(fl validator.FieldLevel) bool {
	value := strings.TrimSpace(fl.Field().String())
	if value == "" {
		return false
	}
	_, err := interval.ParseDate(value)
	return err == nil
}

// validateWorkScheduleStruct enforces the cross-field rules a tag cannot
// express: each weekday appears exactly once, working hours are a
// non-empty forward range, lunch breaks sit strictly inside the working
// range, and vacations do not end before they start.
func validateWorkScheduleStruct(sl validator.StructLevel) {
	ws := sl.Current().Interface().(model.WorkSchedule)

	seen := make(map[int]bool, len(ws.WorkDays))
	for i, day := range ws.WorkDays {
		if day.Weekday < 0 || day.Weekday > 6 {
			continue // tag validation reports the range error
		}
		if seen[day.Weekday] {
			sl.ReportError(ws.WorkDays, fmt.Sprintf("work_days[%d].weekday", i), "WorkDays", "unique_weekday", "")
			continue
		}
		seen[day.Weekday] = true

		working, err := interval.ParseSpan(day.StartTime, day.EndTime)
		if err != nil {
			continue // clock tag reports the format error
		}
		if working.IsEmpty() {
			sl.ReportError(day.EndTime, fmt.Sprintf("work_days[%d].end_time", i), "EndTime", "workday_range", "")
			continue
		}

		for j, lb := range day.LunchBreaks {
			lunch, err := interval.ParseSpan(lb.StartTime, lb.EndTime)
			if err != nil {
				continue
			}
			if lunch.IsEmpty() {
				sl.ReportError(lb.EndTime, fmt.Sprintf("work_days[%d].lunch_breaks[%d].end_time", i, j), "EndTime", "lunch_range", "")
				continue
			}
			if !working.Contains(lunch) {
				sl.ReportError(lb.StartTime, fmt.Sprintf("work_days[%d].lunch_breaks[%d]", i, j), "LunchBreaks", "lunch_within_workday", "")
			}
		}
	}

	for i, v := range ws.Vacations {
		if _, err := interval.ParseDate(v.StartDate); err != nil {
			continue
		}
		if _, err := interval.ParseDate(v.EndDate); err != nil {
			continue
		}
		if v.EndDate < v.StartDate {
			sl.ReportError(v.EndDate, fmt.Sprintf("vacations[%d].end_date", i), "EndDate", "vacation_range", "")
		}
	}
}

func (v *ScheduleValidator) Validate(ws *model.WorkSchedule) error {
	if err := v.validate.Struct(ws); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ScheduleValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "len":
			message = fmt.Sprintf("%s must contain exactly %s entries", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
		case "clock":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "caldate":
			message = fmt.Sprintf("%s must be in YYYY-MM-DD format", err.Field())
		case "unique_weekday":
			message = "each weekday may appear only once in work_days"
		case "workday_range":
			message = "end_time must be after start_time"
		case "lunch_range":
			message = "lunch break end_time must be after start_time"
		case "lunch_within_workday":
			message = "lunch break must lie within the working hours of its day"
		case "vacation_range":
			message = "vacation end_date must not be before start_date"
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

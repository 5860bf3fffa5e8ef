package service

import (
	"context"
	"errors"
	"time"

	scheduleerrors "wellnest/internal/schedules/errors"
	serviceserrors "wellnest/internal/services/errors"
	"wellnest/pkg/config"
	apperrors "wellnest/pkg/errors"
	"wellnest/pkg/interval"
	"wellnest/pkg/model"
)

// ScheduleSource reads a specialist's work schedule. Satisfied by the
// schedules repository.
type ScheduleSource interface {
	FindBySpecialistID(ctx context.Context, specialistID string) (*model.WorkSchedule, error)
}

// AppointmentSource reads the appointments that may block availability
// within an inclusive date range. Satisfied by the bookings repository.
type AppointmentSource interface {
	FindBlockingInRange(ctx context.Context, specialistID, fromDate, toDate string) ([]*model.Appointment, error)
}

// ServiceSource reads a catalog service. Satisfied by the services
// repository.
type ServiceSource interface {
	FindByID(ctx context.Context, id string) (*model.Service, error)
}

// SlotQuery is one availability request.
type SlotQuery struct {
	SpecialistID string
	ServiceID    string
	From         time.Time
	To           time.Time
	Limit        int
	StepMin      int // 0 means step by the service duration
}

type AvailabilityService interface {
	GetSlots(ctx context.Context, q SlotQuery) ([]model.Slot, error)
	InvalidateSpecialist(specialistID string)
	InvalidateAll()
}

type availabilityService struct {
	schedules    ScheduleSource
	appointments AppointmentSource
	services     ServiceSource
	cache        *SlotCache
	cfg          *config.Config
	now          func() time.Time
}

func NewAvailabilityService(
	schedules ScheduleSource,
	appointments AppointmentSource,
	services ServiceSource,
	cache *SlotCache,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		schedules:    schedules,
		appointments: appointments,
		services:     services,
		cache:        cache,
		cfg:          cfg,
		now:          time.Now,
	}
}

// GetSlots enumerates bookable windows for a specialist and service
// inside the requested date range, clamped to the booking horizon.
// Slot lists are a snapshot; booking re-validates at commit time.
func (s *availabilityService) GetSlots(ctx context.Context, q SlotQuery) ([]model.Slot, error) {
	if q.SpecialistID == "" {
		return nil, apperrors.InvalidInput("Specialist ID cannot be empty")
	}
	if q.ServiceID == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}
	if q.StepMin < 0 {
		return nil, apperrors.InvalidInput("step_min must be positive")
	}

	svc, err := s.services.FindByID(ctx, q.ServiceID)
	if err != nil {
		if errors.Is(err, serviceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service", q.ServiceID)
		}
		if errors.Is(err, serviceserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid service ID format")
		}
		s.cfg.Log.Error("Failed to load service for slot query",
			"service_id", q.ServiceID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load service", err)
	}
	if !svc.Active {
		return nil, apperrors.Validation("Service is not bookable", map[string]any{
			"service_id": q.ServiceID,
		})
	}

	ws, err := s.schedules.FindBySpecialistID(ctx, q.SpecialistID)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Work schedule", q.SpecialistID)
		}
		s.cfg.Log.Error("Failed to load work schedule for slot query",
			"specialist_id", q.SpecialistID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load work schedule", err)
	}

	if !ws.Enabled {
		return []model.Slot{}, nil
	}

	stepMin := q.StepMin
	if stepMin == 0 {
		stepMin = svc.DurationMin
	}

	limit := q.Limit
	if limit <= 0 || limit > s.cfg.MaxSlotsPerRequest {
		limit = s.cfg.MaxSlotsPerRequest
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from, to := q.From, q.To
	if from.IsZero() {
		from = today
	}
	if to.IsZero() {
		to = today.AddDate(0, ws.BookingHorizonMonths, 0)
	}
	from, to = ClampWindow(from, to, today, HorizonEnd(ws, today))
	if from.After(to) {
		return []model.Slot{}, nil
	}

	// Resolve cache hits first; the appointment query only runs when at
	// least one day in the window is uncached.
	cachedDays := make(map[string][]model.Slot)
	anyMiss := false
	WalkDates(from, to, func(date time.Time) bool {
		dateKey := interval.FormatDate(date)
		if s.cache != nil {
			if daySlots, ok := s.cache.Get(q.SpecialistID, dateKey, q.ServiceID, stepMin); ok {
				cachedDays[dateKey] = daySlots
				return true
			}
		}
		anyMiss = true
		return true
	})

	var appointmentsByDate map[string][]*model.Appointment
	if anyMiss {
		appointmentsByDate, err = s.loadAppointments(ctx, q.SpecialistID, from, to)
		if err != nil {
			return nil, err
		}
	}

	todayKey := interval.FormatDate(now)
	nowMinute := interval.MinuteOfDay(now)

	slots := make([]model.Slot, 0, limit)
	var walkErr error
	WalkDates(from, to, func(date time.Time) bool {
		dateKey := interval.FormatDate(date)

		daySlots, ok := cachedDays[dateKey]
		if !ok {
			daySlots, err = s.slotsForDay(ws, date, dateKey, q, svc.DurationMin, stepMin, appointmentsByDate[dateKey])
			if err != nil {
				walkErr = err
				return false
			}
		}

		for _, slot := range daySlots {
			// Same-day slots that already started are not offered.
			if dateKey == todayKey {
				start, err := interval.ParseClock(slot.StartTime)
				if err != nil || start <= nowMinute {
					continue
				}
			}
			slots = append(slots, slot)
			if len(slots) >= limit {
				return false
			}
		}
		return true
	})
	if walkErr != nil {
		s.cfg.Log.Error("Failed to resolve availability",
			"specialist_id", q.SpecialistID,
			"error", walkErr,
		)
		return nil, apperrors.Internal("Failed to resolve availability", walkErr)
	}

	s.cfg.Log.Debug("Slot query completed",
		"specialist_id", q.SpecialistID,
		"service_id", q.ServiceID,
		"from", interval.FormatDate(from),
		"to", interval.FormatDate(to),
		"slots", len(slots),
	)

	return slots, nil
}

// slotsForDay returns the full day's slot list, from the cache when
// possible. Cached entries hold the whole day so the same entry serves
// queries with different limits.
func (s *availabilityService) slotsForDay(
	ws *model.WorkSchedule,
	date time.Time,
	dateKey string,
	q SlotQuery,
	durationMin, stepMin int,
	appointments []*model.Appointment,
) ([]model.Slot, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(q.SpecialistID, dateKey, q.ServiceID, stepMin); ok {
			return cached, nil
		}
	}

	free, err := ResolveDay(ws, date, appointments)
	if err != nil {
		return nil, err
	}

	spans := EnumerateSlots(free, durationMin, stepMin, 0)
	daySlots := make([]model.Slot, 0, len(spans))
	for _, span := range spans {
		daySlots = append(daySlots, model.NewSlot(dateKey, span))
	}

	if s.cache != nil {
		s.cache.Set(q.SpecialistID, dateKey, q.ServiceID, stepMin, daySlots)
	}

	return daySlots, nil
}

func (s *availabilityService) loadAppointments(ctx context.Context, specialistID string, from, to time.Time) (map[string][]*model.Appointment, error) {
	appointments, err := s.appointments.FindBlockingInRange(ctx, specialistID, interval.FormatDate(from), interval.FormatDate(to))
	if err != nil {
		s.cfg.Log.Error("Failed to load appointments for slot query",
			"specialist_id", specialistID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load appointments", err)
	}

	byDate := make(map[string][]*model.Appointment, len(appointments))
	for _, a := range appointments {
		byDate[a.Date] = append(byDate[a.Date], a)
	}
	return byDate, nil
}

func (s *availabilityService) InvalidateSpecialist(specialistID string) {
	if s.cache != nil {
		s.cache.InvalidateSpecialist(specialistID)
	}
}

func (s *availabilityService) InvalidateAll() {
	if s.cache != nil {
		s.cache.InvalidateAll()
	}
}

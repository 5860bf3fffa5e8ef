package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	availability "wellnest/internal/availability/service"
	bookingserrors "wellnest/internal/bookings/errors"
	"wellnest/internal/bookings/repository"
	"wellnest/internal/bookings/validator"
	scheduleerrors "wellnest/internal/schedules/errors"
	serviceserrors "wellnest/internal/services/errors"
	"wellnest/pkg/config"
	apperrors "wellnest/pkg/errors"
	"wellnest/pkg/interval"
	"wellnest/pkg/kafka"
	"wellnest/pkg/model"
	"wellnest/pkg/sanitizer"
)

// BookingRequest is the client-facing payload for taking a slot. The
// end time is derived from the service duration, never trusted from the
// client.
type BookingRequest struct {
	SpecialistID string `json:"specialist_id"`
	ServiceID    string `json:"service_id"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	ClientName   string `json:"client_name"`
	ClientPhone  string `json:"client_phone,omitempty"`
	// Status may be pending or confirmed; empty means confirmed.
	Status string `json:"status,omitempty"`
}

type BookingService interface {
	Book(ctx context.Context, req *BookingRequest) (*model.Appointment, error)
	Cancel(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	GetBySpecialist(ctx context.Context, specialistID string, limit int, offset int64) ([]*model.Appointment, int64, error)
	GetForDate(ctx context.Context, specialistID, date string) ([]*model.Appointment, error)
}

// EventPublisher is satisfied by *kafka.Producer. A nil publisher
// disables event emission.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// AvailabilityInvalidator drops cached slot computations after a
// booking changes the day's availability.
type AvailabilityInvalidator interface {
	InvalidateSpecialist(specialistID string)
}

type bookingService struct {
	repo        repository.AppointmentRepository
	lockRepo    repository.AppointmentLockRepository
	schedules   availability.ScheduleSource
	services    availability.ServiceSource
	validator   *validator.AppointmentValidator
	cfg         *config.Config
	publisher   EventPublisher
	invalidator AvailabilityInvalidator
	now         func() time.Time
}

func NewBookingService(
	repo repository.AppointmentRepository,
	lockRepo repository.AppointmentLockRepository,
	schedules availability.ScheduleSource,
	services availability.ServiceSource,
	validator *validator.AppointmentValidator,
	cfg *config.Config,
	publisher EventPublisher,
	invalidator AvailabilityInvalidator,
) BookingService {
	return &bookingService{
		repo:        repo,
		lockRepo:    lockRepo,
		schedules:   schedules,
		services:    services,
		validator:   validator,
		cfg:         cfg,
		publisher:   publisher,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// Book commits one slot. The commit guard runs in three layers: the
// slot must still exist in the specialist's current layout, an advisory
// lock serializes concurrent commits on the specialist's day, and the
// overlap check re-runs inside a transaction before the insert. Losing
// any layer surfaces as SLOT_UNAVAILABLE so clients re-enumerate and
// retry.
func (s *bookingService) Book(ctx context.Context, req *BookingRequest) (*model.Appointment, error) {
	req.ClientName = sanitizer.NormalizeName(req.ClientName)
	req.ClientPhone = sanitizer.NormalizePhone(req.ClientPhone)

	status, err := requestedStatus(req.Status)
	if err != nil {
		return nil, err
	}

	svc, err := s.loadService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	span, err := s.slotSpan(req.StartTime, svc.DurationMin)
	if err != nil {
		return nil, err
	}

	appointment := &model.Appointment{
		SpecialistID: req.SpecialistID,
		ServiceID:    req.ServiceID,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      interval.FormatClock(span.End),
		Status:       status,
		ClientName:   req.ClientName,
		ClientPhone:  req.ClientPhone,
	}

	if err := s.validator.Validate(appointment); err != nil {
		s.cfg.Log.Warn("Appointment validation failed",
			"specialist_id", req.SpecialistID,
			"error", err,
		)
		return nil, apperrors.Validation("Appointment validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.verifySlotInLayout(ctx, appointment, span); err != nil {
		return nil, err
	}

	lockID, err := s.acquireSlotLock(ctx, appointment.SpecialistID, appointment.Date)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoOverlap(sessCtx, appointment, span); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, appointment); err != nil {
			return apperrors.Internal("Failed to create appointment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to book appointment",
			"specialist_id", appointment.SpecialistID,
			"date", appointment.Date,
			"start_time", appointment.StartTime,
			"error", err,
		)
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateSpecialist(appointment.SpecialistID)
	}
	s.publishEvent(ctx, kafka.EventAppointmentBooked, appointment)

	s.cfg.Log.Info("Appointment booked",
		"id", appointment.ID,
		"specialist_id", appointment.SpecialistID,
		"date", appointment.Date,
		"start_time", appointment.StartTime,
	)
	return appointment, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string) error {
	appointment, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	switch appointment.Status {
	case model.StatusCancelled:
		return apperrors.Conflict("Appointment is already cancelled")
	case model.StatusCompleted:
		return apperrors.Conflict("Completed appointments cannot be cancelled")
	}

	if err := s.repo.UpdateStatus(ctx, id, model.StatusCancelled); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		s.cfg.Log.Error("Failed to cancel appointment", "id", id, "error", err)
		return apperrors.Internal("Failed to cancel appointment", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateSpecialist(appointment.SpecialistID)
	}
	appointment.Status = model.StatusCancelled
	s.publishEvent(ctx, kafka.EventAppointmentCancelled, appointment)

	s.cfg.Log.Info("Appointment cancelled",
		"id", id,
		"specialist_id", appointment.SpecialistID,
		"date", appointment.Date,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid appointment ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}

	return appointment, nil
}

func (s *bookingService) GetBySpecialist(ctx context.Context, specialistID string, limit int, offset int64) ([]*model.Appointment, int64, error) {
	if specialistID == "" {
		return nil, 0, apperrors.InvalidInput("Specialist ID cannot be empty")
	}

	var count int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountBySpecialist(ctx, specialistID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count appointments", "specialist_id", specialistID, "error", errCount)
			errCount = apperrors.Internal("Failed to count appointments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		appointments, errFind = s.repo.FindBySpecialist(ctx, specialistID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list appointments", "specialist_id", specialistID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve appointments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return appointments, count, nil
}

// requestedStatus maps the request's optional status. Both pending and
// confirmed block the slot identically.
func requestedStatus(status string) (string, error) {
	switch status {
	case "":
		return model.StatusConfirmed, nil
	case model.StatusPending, model.StatusConfirmed:
		return status, nil
	default:
		return "", apperrors.InvalidInput("status must be pending or confirmed")
	}
}

// GetForDate lists the appointments still occupying the specialist's
// day; cancelled and completed ones are omitted.
func (s *bookingService) GetForDate(ctx context.Context, specialistID, date string) ([]*model.Appointment, error) {
	if specialistID == "" {
		return nil, apperrors.InvalidInput("Specialist ID cannot be empty")
	}
	if _, err := interval.ParseDate(date); err != nil {
		return nil, apperrors.InvalidInput("date must be in YYYY-MM-DD format")
	}

	appointments, err := s.repo.FindBlockingForDate(ctx, specialistID, date)
	if err != nil {
		s.cfg.Log.Error("Failed to list appointments for date", "specialist_id", specialistID, "date", date, "error", err)
		return nil, apperrors.Internal("Failed to retrieve appointments", err)
	}
	return appointments, nil
}

func (s *bookingService) loadService(ctx context.Context, serviceID string) (*model.Service, error) {
	if serviceID == "" {
		return nil, apperrors.InvalidInput("Service ID cannot be empty")
	}

	svc, err := s.services.FindByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, serviceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Service", serviceID)
		}
		if errors.Is(err, serviceserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid service ID format")
		}
		return nil, apperrors.Internal("Failed to load service", err)
	}
	if !svc.Active {
		return nil, apperrors.Validation("Service is not bookable", map[string]any{
			"service_id": serviceID,
		})
	}
	return svc, nil
}

func (s *bookingService) slotSpan(startTime string, durationMin int) (interval.Span, error) {
	start, err := interval.ParseClock(startTime)
	if err != nil {
		return interval.Span{}, apperrors.InvalidInput("start_time must be in HH:MM 24-hour format")
	}
	end := start + durationMin
	if end > interval.MinutesPerDay {
		return interval.Span{}, apperrors.Validation("Appointment does not fit within the day", nil)
	}
	return interval.Span{Start: start, End: end}, nil
}

// verifySlotInLayout rejects slots the current schedule no longer
// offers: outside the horizon, in the past, on an inactive day or
// vacation, or not fully inside the working hours minus lunch breaks.
// Existing appointments are checked later, under the lock.
func (s *bookingService) verifySlotInLayout(ctx context.Context, a *model.Appointment, span interval.Span) error {
	ws, err := s.schedules.FindBySpecialistID(ctx, a.SpecialistID)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Work schedule", a.SpecialistID)
		}
		return apperrors.Internal("Failed to load work schedule", err)
	}

	if !ws.Enabled {
		return apperrors.SlotUnavailable("The specialist is not accepting bookings")
	}

	date, err := interval.ParseDate(a.Date)
	if err != nil {
		return apperrors.InvalidInput("date must be in YYYY-MM-DD format")
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return apperrors.Validation("Appointments cannot be booked in the past", nil)
	}
	if date.Equal(today) && span.Start <= interval.MinuteOfDay(now) {
		return apperrors.Validation("Appointments cannot be booked in the past", nil)
	}
	if date.After(availability.HorizonEnd(ws, today)) {
		return apperrors.Validation("Appointment date is beyond the booking horizon", map[string]any{
			"booking_horizon_months": ws.BookingHorizonMonths,
		})
	}

	free, err := availability.ResolveDay(ws, date, nil)
	if err != nil {
		return apperrors.Internal("Failed to resolve day availability", err)
	}
	for _, f := range free {
		if f.Contains(span) {
			return nil
		}
	}
	return apperrors.SlotUnavailable("The requested slot is not within the specialist's working hours")
}

// verifyNoOverlap is the commit-time re-check: with the slot lock held,
// any blocking appointment overlapping the requested span means another
// request won the slot first.
func (s *bookingService) verifyNoOverlap(ctx context.Context, a *model.Appointment, span interval.Span) error {
	existing, err := s.repo.FindBlockingForDate(ctx, a.SpecialistID, a.Date)
	if err != nil {
		return apperrors.Internal("Failed to check existing appointments", err)
	}

	for _, e := range existing {
		eSpan, err := e.Span()
		if err != nil {
			// A record whose span cannot be parsed must block the commit,
			// not slip past the overlap check.
			return apperrors.Internal("Failed to parse stored appointment times", err)
		}
		if span.Overlaps(eSpan) {
			return apperrors.SlotUnavailable(fmt.Sprintf(
				"The slot overlaps an existing appointment (%s - %s)",
				e.StartTime, e.EndTime,
			))
		}
	}
	return nil
}

// acquireSlotLock serializes concurrent commits on one specialist-day
// via a unique lock document. The lock covers the whole day, not one
// start minute: overlapping spans with different starts must contend on
// the same key or both transactions' overlap reads run against
// snapshots that miss each other's insert. The duplicate key error is
// the contention signal.
func (s *bookingService) acquireSlotLock(ctx context.Context, specialistID, date string) (string, error) {
	lockID := fmt.Sprintf("slot_lock_%s_%s", specialistID, date)

	lock := &model.AppointmentLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.SlotUnavailable("This slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

func (s *bookingService) publishEvent(ctx context.Context, eventType string, a *model.Appointment) {
	if s.publisher == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(a.SpecialistID).
		WithEventType(eventType).
		WithSource("scheduling").
		WithSchemaVersion("1").
		WithValue(a).
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		// The appointment state is already committed; event loss is
		// logged, not fatal.
		s.cfg.Log.Error("Failed to publish appointment event",
			"event_type", eventType,
			"appointment_id", a.ID,
			"error", err,
		)
	}
}

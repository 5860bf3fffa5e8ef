package service

import (
	"context"
	"errors"
	"sync"

	scheduleerrors "wellnest/internal/schedules/errors"
	"wellnest/internal/schedules/repository"
	"wellnest/internal/schedules/validator"
	"wellnest/pkg/config"
	apperrors "wellnest/pkg/errors"
	"wellnest/pkg/kafka"
	"wellnest/pkg/model"
	"wellnest/pkg/sanitizer"
)

type WorkScheduleService interface {
	Put(ctx context.Context, specialistID string, ws *model.WorkSchedule) error
	GetBySpecialistID(ctx context.Context, specialistID string) (*model.WorkSchedule, error)
	GetAll(ctx context.Context, limit int, offset int) ([]*model.WorkSchedule, int64, error)
	Delete(ctx context.Context, specialistID string) error
}

// EventPublisher is satisfied by *kafka.Producer. A nil publisher
// disables event emission.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// AvailabilityInvalidator drops cached slot computations for a
// specialist after their schedule changes.
type AvailabilityInvalidator interface {
	InvalidateSpecialist(specialistID string)
}

type workScheduleService struct {
	repo        repository.WorkScheduleRepository
	validator   *validator.ScheduleValidator
	cfg         *config.Config
	publisher   EventPublisher
	invalidator AvailabilityInvalidator
}

func NewWorkScheduleService(
	repo repository.WorkScheduleRepository,
	validator *validator.ScheduleValidator,
	cfg *config.Config,
	publisher EventPublisher,
	invalidator AvailabilityInvalidator,
) WorkScheduleService {
	return &workScheduleService{
		repo:        repo,
		validator:   validator,
		cfg:         cfg,
		publisher:   publisher,
		invalidator: invalidator,
	}
}

// Put replaces the specialist's schedule wholesale. Slots already shown
// to clients may disappear after this call; existing appointments are
// never touched.
func (s *workScheduleService) Put(ctx context.Context, specialistID string, ws *model.WorkSchedule) error {
	if specialistID == "" {
		return apperrors.InvalidInput("Specialist ID cannot be empty")
	}

	ws.SpecialistID = specialistID
	s.sanitize(ws)
	s.applyDefaults(ws)

	if err := s.validator.Validate(ws); err != nil {
		s.cfg.Log.Warn("Work schedule validation failed",
			"specialist_id", specialistID,
			"error", err,
		)
		return apperrors.Validation("Work schedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Upsert(ctx, ws); err != nil {
		s.cfg.Log.Error("Failed to store work schedule",
			"specialist_id", specialistID,
			"error", err,
		)
		return apperrors.Internal("Failed to store work schedule", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateSpecialist(specialistID)
	}

	s.publishScheduleUpdated(ctx, ws)

	s.cfg.Log.Info("Work schedule stored",
		"specialist_id", specialistID,
		"enabled", ws.Enabled,
		"booking_horizon_months", ws.BookingHorizonMonths,
	)
	return nil
}

func (s *workScheduleService) GetBySpecialistID(ctx context.Context, specialistID string) (*model.WorkSchedule, error) {
	if specialistID == "" {
		return nil, apperrors.InvalidInput("Specialist ID cannot be empty")
	}

	ws, err := s.repo.FindBySpecialistID(ctx, specialistID)
	if err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Work schedule", specialistID)
		}
		if errors.Is(err, scheduleerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid specialist ID format")
		}
		s.cfg.Log.Error("Failed to get work schedule",
			"specialist_id", specialistID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve work schedule", err)
	}

	return ws, nil
}

func (s *workScheduleService) GetAll(ctx context.Context, limit int, offset int) ([]*model.WorkSchedule, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > config.DefaultPaginationLimit {
		limit = config.DefaultPaginationLimit
	}
	if offset < 0 {
		offset = 0
	}

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var schedules []*model.WorkSchedule
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(sharedCtx)
		if err != nil {
			s.cfg.Log.Error("Failed to count work schedules", "error", err)
			errCount = apperrors.Internal("Failed to count work schedules", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		schedules, err = s.repo.FindAll(sharedCtx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list work schedules",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve work schedules", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return schedules, count, nil
}

func (s *workScheduleService) Delete(ctx context.Context, specialistID string) error {
	if specialistID == "" {
		return apperrors.InvalidInput("Specialist ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, specialistID); err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Work schedule", specialistID)
		}
		if errors.Is(err, scheduleerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid specialist ID format")
		}
		s.cfg.Log.Error("Failed to delete work schedule",
			"specialist_id", specialistID,
			"error", err,
		)
		return apperrors.Internal("Failed to delete work schedule", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateSpecialist(specialistID)
	}

	s.cfg.Log.Info("Work schedule deleted", "specialist_id", specialistID)
	return nil
}

func (s *workScheduleService) sanitize(ws *model.WorkSchedule) {
	for i := range ws.Vacations {
		ws.Vacations[i].Description = sanitizer.NormalizeDescription(ws.Vacations[i].Description)
	}
}

// applyDefaults fills a missing weekly template and blank day times so a
// minimal PUT body still yields a complete seven-day schedule.
func (s *workScheduleService) applyDefaults(ws *model.WorkSchedule) {
	if ws.BookingHorizonMonths == 0 {
		ws.BookingHorizonMonths = config.DefaultBookingHorizonMonths
	}
	if len(ws.WorkDays) == 0 {
		ws.WorkDays = model.DefaultWorkDays(s.cfg.DefaultStartOfDay, s.cfg.DefaultEndOfDay)
		return
	}
	for i := range ws.WorkDays {
		if ws.WorkDays[i].StartTime == "" {
			ws.WorkDays[i].StartTime = s.cfg.DefaultStartOfDay
		}
		if ws.WorkDays[i].EndTime == "" {
			ws.WorkDays[i].EndTime = s.cfg.DefaultEndOfDay
		}
	}
}

func (s *workScheduleService) publishScheduleUpdated(ctx context.Context, ws *model.WorkSchedule) {
	if s.publisher == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(ws.SpecialistID).
		WithEventType(kafka.EventScheduleUpdated).
		WithSource("scheduling").
		WithSchemaVersion("1").
		WithValue(ws).
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		// The schedule is already stored; event loss is logged, not fatal.
		s.cfg.Log.Error("Failed to publish schedule.updated event",
			"specialist_id", ws.SpecialistID,
			"error", err,
		)
	}
}

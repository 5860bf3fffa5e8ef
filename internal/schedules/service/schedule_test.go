package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	scheduleerrors "wellnest/internal/schedules/errors"
	"wellnest/internal/schedules/validator"
	"wellnest/pkg/config"
	apperrors "wellnest/pkg/errors"
	"wellnest/pkg/kafka"
	"wellnest/pkg/logger"
	"wellnest/pkg/model"
	mongotx "wellnest/pkg/db/mongo"
)

type mockWorkScheduleRepository struct {
	upsertFunc             func(ctx context.Context, ws *model.WorkSchedule) error
	findBySpecialistIDFunc func(ctx context.Context, specialistID string) (*model.WorkSchedule, error)
	findAllFunc            func(ctx context.Context, limit int, offset int) ([]*model.WorkSchedule, error)
	deleteFunc             func(ctx context.Context, specialistID string) error
	countFunc              func(ctx context.Context) (int64, error)
}

func (m *mockWorkScheduleRepository) Upsert(ctx context.Context, ws *model.WorkSchedule) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, ws)
	}
	return nil
}

func (m *mockWorkScheduleRepository) FindBySpecialistID(ctx context.Context, specialistID string) (*model.WorkSchedule, error) {
	if m.findBySpecialistIDFunc != nil {
		return m.findBySpecialistIDFunc(ctx, specialistID)
	}
	return nil, scheduleerrors.ErrNotFound
}

func (m *mockWorkScheduleRepository) FindAll(ctx context.Context, limit int, offset int) ([]*model.WorkSchedule, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockWorkScheduleRepository) Delete(ctx context.Context, specialistID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, specialistID)
	}
	return nil
}

func (m *mockWorkScheduleRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockWorkScheduleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, msg kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}

type mockInvalidator struct {
	invalidated []string
}

func (m *mockInvalidator) InvalidateSpecialist(specialistID string) {
	m.invalidated = append(m.invalidated, specialistID)
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultStartOfDay: "09:00",
		DefaultEndOfDay:   "18:00",
		Log:               logger.New(logger.Config{Level: "error", Format: logger.TEXT, Service: "test"}),
	}
}

func testValidator(t *testing.T) *validator.ScheduleValidator {
	t.Helper()
	return validator.NewScheduleValidator(logger.New(logger.Config{Level: "error", Format: logger.TEXT, Service: "test"}))
}

func activeSchedule() *model.WorkSchedule {
	ws := &model.WorkSchedule{
		Enabled:              true,
		BookingHorizonMonths: 6,
		WorkDays:             model.DefaultWorkDays("09:00", "18:00"),
	}
	ws.WorkDays[model.Monday].Active = true
	return ws
}

func TestPutStoresScheduleAndInvalidatesCache(t *testing.T) {
	var stored *model.WorkSchedule
	repo := &mockWorkScheduleRepository{
		upsertFunc: func(_ context.Context, ws *model.WorkSchedule) error {
			stored = ws
			return nil
		},
	}
	publisher := &mockPublisher{}
	invalidator := &mockInvalidator{}

	svc := NewWorkScheduleService(repo, testValidator(t), testConfig(), publisher, invalidator)

	ws := activeSchedule()
	if err := svc.Put(context.Background(), "spec-1", ws); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored == nil {
		t.Fatal("expected schedule to be stored")
	}
	if stored.SpecialistID != "spec-1" {
		t.Errorf("expected specialist_id spec-1, got %s", stored.SpecialistID)
	}
	if len(invalidator.invalidated) != 1 || invalidator.invalidated[0] != "spec-1" {
		t.Errorf("expected cache invalidation for spec-1, got %v", invalidator.invalidated)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.published))
	}
	if got := publisher.published[0].GetEventType(); got != kafka.EventScheduleUpdated {
		t.Errorf("expected event type %s, got %s", kafka.EventScheduleUpdated, got)
	}
}

func TestPutFillsDefaultWorkDays(t *testing.T) {
	var stored *model.WorkSchedule
	repo := &mockWorkScheduleRepository{
		upsertFunc: func(_ context.Context, ws *model.WorkSchedule) error {
			stored = ws
			return nil
		},
	}

	svc := NewWorkScheduleService(repo, testValidator(t), testConfig(), nil, nil)

	ws := &model.WorkSchedule{Enabled: false, BookingHorizonMonths: 2}
	if err := svc.Put(context.Background(), "spec-1", ws); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stored.WorkDays) != 7 {
		t.Fatalf("expected 7 default work days, got %d", len(stored.WorkDays))
	}
	for i, day := range stored.WorkDays {
		if day.Active {
			t.Errorf("day %d: default work day should be inactive", i)
		}
		if day.StartTime != "09:00" || day.EndTime != "18:00" {
			t.Errorf("day %d: expected default hours 09:00-18:00, got %s-%s", i, day.StartTime, day.EndTime)
		}
	}
}

func TestPutRejectsInvalidSchedule(t *testing.T) {
	upsertCalled := false
	repo := &mockWorkScheduleRepository{
		upsertFunc: func(_ context.Context, _ *model.WorkSchedule) error {
			upsertCalled = true
			return nil
		},
	}

	svc := NewWorkScheduleService(repo, testValidator(t), testConfig(), nil, nil)

	ws := activeSchedule()
	ws.BookingHorizonMonths = 4

	err := svc.Put(context.Background(), "spec-1", ws)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
	if upsertCalled {
		t.Error("repository must not be called for an invalid schedule")
	}
}

func TestPutSurvivesPublishFailure(t *testing.T) {
	repo := &mockWorkScheduleRepository{}
	publisher := &mockPublisher{err: errors.New("broker unreachable")}

	svc := NewWorkScheduleService(repo, testValidator(t), testConfig(), publisher, nil)

	if err := svc.Put(context.Background(), "spec-1", activeSchedule()); err != nil {
		t.Fatalf("publish failure must not fail the write, got: %v", err)
	}
}

func TestGetBySpecialistIDNotFound(t *testing.T) {
	repo := &mockWorkScheduleRepository{
		findBySpecialistIDFunc: func(_ context.Context, id string) (*model.WorkSchedule, error) {
			return nil, fmt.Errorf("%w: %s", scheduleerrors.ErrNotFound, id)
		},
	}

	svc := NewWorkScheduleService(repo, testValidator(t), testConfig(), nil, nil)

	_, err := svc.GetBySpecialistID(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected not found error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

func TestGetBySpecialistIDEmptyID(t *testing.T) {
	svc := NewWorkScheduleService(&mockWorkScheduleRepository{}, testValidator(t), testConfig(), nil, nil)

	_, err := svc.GetBySpecialistID(context.Background(), "")
	if err == nil {
		t.Fatal("expected invalid input error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected code %s, got %s", apperrors.CodeInvalidInput, appErr.Code)
	}
}

func TestDeleteInvalidatesCache(t *testing.T) {
	repo := &mockWorkScheduleRepository{}
	invalidator := &mockInvalidator{}

	svc := NewWorkScheduleService(repo, testValidator(t), testConfig(), nil, invalidator)

	if err := svc.Delete(context.Background(), "spec-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(invalidator.invalidated) != 1 {
		t.Errorf("expected one invalidation, got %d", len(invalidator.invalidated))
	}
}

func TestGetAllReturnsCountAndPage(t *testing.T) {
	repo := &mockWorkScheduleRepository{
		findAllFunc: func(_ context.Context, limit int, offset int) ([]*model.WorkSchedule, error) {
			return []*model.WorkSchedule{{SpecialistID: "a"}, {SpecialistID: "b"}}, nil
		},
		countFunc: func(_ context.Context) (int64, error) {
			return 12, nil
		},
	}

	cfg := testConfig()
	cfg.ReadTimeout = config.DefaultReadTimeout

	svc := NewWorkScheduleService(repo, testValidator(t), cfg, nil, nil)

	schedules, count, err := svc.GetAll(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 12 {
		t.Errorf("expected count 12, got %d", count)
	}
	if len(schedules) != 2 {
		t.Errorf("expected 2 schedules, got %d", len(schedules))
	}
}

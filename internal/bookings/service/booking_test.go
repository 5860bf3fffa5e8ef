package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "wellnest/internal/bookings/errors"
	"wellnest/internal/bookings/validator"
	scheduleerrors "wellnest/internal/schedules/errors"
	serviceserrors "wellnest/internal/services/errors"
	"wellnest/pkg/config"
	mongotx "wellnest/pkg/db/mongo"
	apperrors "wellnest/pkg/errors"
	"wellnest/pkg/kafka"
	"wellnest/pkg/logger"
	"wellnest/pkg/model"
)

type mockAppointmentRepository struct {
	createFunc              func(ctx context.Context, a *model.Appointment) error
	findByIDFunc            func(ctx context.Context, id string) (*model.Appointment, error)
	findBlockingForDateFunc func(ctx context.Context, specialistID, date string) ([]*model.Appointment, error)
	updateStatusFunc        func(ctx context.Context, id string, status string) error

	createCalls int
}

func (m *mockAppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	m.createCalls++
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	return nil
}

func (m *mockAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockAppointmentRepository) FindBlockingForDate(ctx context.Context, specialistID, date string) ([]*model.Appointment, error) {
	if m.findBlockingForDateFunc != nil {
		return m.findBlockingForDateFunc(ctx, specialistID, date)
	}
	return nil, nil
}

func (m *mockAppointmentRepository) FindBlockingInRange(_ context.Context, _, _, _ string) ([]*model.Appointment, error) {
	return nil, nil
}

func (m *mockAppointmentRepository) FindBySpecialist(_ context.Context, _ string, _ int, _ int64) ([]*model.Appointment, error) {
	return nil, nil
}

func (m *mockAppointmentRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockAppointmentRepository) CountBySpecialist(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func (m *mockAppointmentRepository) ExecuteTransaction(_ context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.AppointmentLock) (*model.AppointmentLock, error)

	createCalls int
	deleted     []string
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.AppointmentLock) (*model.AppointmentLock, error) {
	m.createCalls++
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(_ context.Context, lockID string) error {
	m.deleted = append(m.deleted, lockID)
	return nil
}

type mockScheduleSource struct {
	schedule *model.WorkSchedule
	err      error
}

func (m *mockScheduleSource) FindBySpecialistID(_ context.Context, _ string) (*model.WorkSchedule, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.schedule == nil {
		return nil, scheduleerrors.ErrNotFound
	}
	return m.schedule, nil
}

type mockServiceSource struct {
	service *model.Service
	err     error
}

func (m *mockServiceSource) FindByID(_ context.Context, _ string) (*model.Service, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.service == nil {
		return nil, serviceserrors.ErrNotFound
	}
	return m.service, nil
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

const testServiceID = "64a0000000000000000000a1"

// tuesday precedes the booked Monday by six days, well inside a
// two-month horizon.
var tuesday = time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)

func massageService() *model.Service {
	return &model.Service{
		ID:          testServiceID,
		Name:        "Deep Tissue Massage",
		DurationMin: 30,
		Active:      true,
	}
}

func mondaySchedule() *model.WorkSchedule {
	ws := &model.WorkSchedule{
		SpecialistID:         "spec-1",
		Enabled:              true,
		BookingHorizonMonths: 2,
		WorkDays:             model.DefaultWorkDays("09:00", "18:00"),
	}
	ws.WorkDays[model.Monday].Active = true
	ws.WorkDays[model.Monday].LunchBreaks = []model.LunchBreak{
		{Enabled: true, StartTime: "13:00", EndTime: "14:00"},
	}
	return ws
}

func bookingRequest() *BookingRequest {
	return &BookingRequest{
		SpecialistID: "spec-1",
		ServiceID:    testServiceID,
		Date:         "2026-09-07",
		StartTime:    "10:00",
		ClientName:   "Dana Levi",
		ClientPhone:  "+972541234567",
	}
}

type bookingFixture struct {
	repo        *mockAppointmentRepository
	locks       *mockLockRepository
	schedules   *mockScheduleSource
	services    *mockServiceSource
	publisher   *mockPublisher
	invalidator *mockInvalidator
	svc         *bookingService
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	log := logger.New(logger.Config{Level: "error", Format: logger.TEXT, Service: "test"})
	cfg := &config.Config{
		SlotLockTTL: 30 * time.Second,
		ReadTimeout: config.DefaultReadTimeout,
		Log:         log,
	}

	f := &bookingFixture{
		repo:        &mockAppointmentRepository{},
		locks:       &mockLockRepository{},
		schedules:   &mockScheduleSource{schedule: mondaySchedule()},
		services:    &mockServiceSource{service: massageService()},
		publisher:   &mockPublisher{},
		invalidator: &mockInvalidator{},
	}

	svc := NewBookingService(
		f.repo,
		f.locks,
		f.schedules,
		f.services,
		validator.NewAppointmentValidator(log),
		cfg,
		f.publisher,
		f.invalidator,
	)
	f.svc = svc.(*bookingService)
	f.svc.now = func() time.Time { return tuesday }
	return f
}

func TestBookCommitsSlot(t *testing.T) {
	f := newBookingFixture(t)

	appointment, err := f.svc.Book(context.Background(), bookingRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if appointment.EndTime != "10:30" {
		t.Errorf("expected end time derived from service duration, got %q", appointment.EndTime)
	}
	if appointment.Status != model.StatusConfirmed {
		t.Errorf("expected confirmed status, got %q", appointment.Status)
	}
	if f.repo.createCalls != 1 {
		t.Errorf("expected one create, got %d", f.repo.createCalls)
	}

	wantLockID := "slot_lock_spec-1_2026-09-07"
	if f.locks.createCalls != 1 {
		t.Fatalf("expected one lock acquisition, got %d", f.locks.createCalls)
	}
	if len(f.locks.deleted) != 1 || f.locks.deleted[0] != wantLockID {
		t.Errorf("expected lock %q released, got %v", wantLockID, f.locks.deleted)
	}

	if len(f.invalidator.invalidated) != 1 || f.invalidator.invalidated[0] != "spec-1" {
		t.Errorf("expected cache invalidation for spec-1, got %v", f.invalidator.invalidated)
	}
	if len(f.publisher.published) != 1 {
		t.Fatalf("expected one event, got %d", len(f.publisher.published))
	}
	if got := f.publisher.published[0].GetEventType(); got != kafka.EventAppointmentBooked {
		t.Errorf("expected %q event, got %q", kafka.EventAppointmentBooked, got)
	}
}

func TestBookLockContention(t *testing.T) {
	f := newBookingFixture(t)
	f.locks.createFunc = func(_ context.Context, _ *model.AppointmentLock) (*model.AppointmentLock, error) {
		return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	}

	_, err := f.svc.Book(context.Background(), bookingRequest())
	if !apperrors.IsSlotUnavailable(err) {
		t.Fatalf("expected slot unavailable on lock contention, got %v", err)
	}
	if f.repo.createCalls != 0 {
		t.Errorf("expected no create after losing the lock, got %d", f.repo.createCalls)
	}
}

func TestBookOverlappingSpansContendOnSameLock(t *testing.T) {
	f := newBookingFixture(t)
	var lockIDs []string
	f.locks.createFunc = func(_ context.Context, lock *model.AppointmentLock) (*model.AppointmentLock, error) {
		lockIDs = append(lockIDs, lock.ID)
		return lock, nil
	}

	first := bookingRequest()
	if _, err := f.svc.Book(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A different start minute on the same day must contend on the same
	// key, otherwise overlapping spans could commit concurrently.
	second := bookingRequest()
	second.StartTime = "10:15"
	if _, err := f.svc.Book(context.Background(), second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lockIDs) != 2 {
		t.Fatalf("expected two lock acquisitions, got %d", len(lockIDs))
	}
	if lockIDs[0] != lockIDs[1] {
		t.Errorf("overlapping spans must take the same specialist-day lock, got %q and %q", lockIDs[0], lockIDs[1])
	}
}

func TestBookOverlapAtCommit(t *testing.T) {
	f := newBookingFixture(t)
	f.repo.findBlockingForDateFunc = func(_ context.Context, _, _ string) ([]*model.Appointment, error) {
		return []*model.Appointment{
			{StartTime: "09:45", EndTime: "10:15", Status: model.StatusConfirmed},
		}, nil
	}

	_, err := f.svc.Book(context.Background(), bookingRequest())
	if !apperrors.IsSlotUnavailable(err) {
		t.Fatalf("expected slot unavailable on overlap, got %v", err)
	}
	if f.repo.createCalls != 0 {
		t.Errorf("expected no create after overlap check, got %d", f.repo.createCalls)
	}
	if len(f.locks.deleted) != 1 {
		t.Errorf("expected lock released after failed commit, got %v", f.locks.deleted)
	}
}

func TestBookRejectsCorruptStoredSpan(t *testing.T) {
	f := newBookingFixture(t)
	f.repo.findBlockingForDateFunc = func(_ context.Context, _, _ string) ([]*model.Appointment, error) {
		return []*model.Appointment{
			{StartTime: "garbage", EndTime: "10:15", Status: model.StatusConfirmed},
		}, nil
	}

	_, err := f.svc.Book(context.Background(), bookingRequest())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInternal {
		t.Fatalf("expected internal error for unparseable stored span, got %v", err)
	}
	if f.repo.createCalls != 0 {
		t.Errorf("expected no create past a corrupt record, got %d", f.repo.createCalls)
	}
}

func TestBookTouchingAppointmentsAllowed(t *testing.T) {
	f := newBookingFixture(t)
	f.repo.findBlockingForDateFunc = func(_ context.Context, _, _ string) ([]*model.Appointment, error) {
		return []*model.Appointment{
			{StartTime: "09:30", EndTime: "10:00", Status: model.StatusConfirmed},
			{StartTime: "10:30", EndTime: "11:00", Status: model.StatusPending},
		}, nil
	}

	if _, err := f.svc.Book(context.Background(), bookingRequest()); err != nil {
		t.Fatalf("back-to-back appointments should not conflict: %v", err)
	}
}

func TestBookRejectsSlotOutsideLayout(t *testing.T) {
	tests := []struct {
		name      string
		startTime string
	}{
		{name: "before opening", startTime: "08:00"},
		{name: "inside lunch break", startTime: "13:00"},
		{name: "straddling lunch start", startTime: "12:45"},
		{name: "past closing", startTime: "17:45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			req := bookingRequest()
			req.StartTime = tt.startTime

			_, err := f.svc.Book(context.Background(), req)
			if !apperrors.IsSlotUnavailable(err) {
				t.Fatalf("expected slot unavailable, got %v", err)
			}
			if f.locks.createCalls != 0 {
				t.Errorf("layout rejection should not reach the lock, got %d acquisitions", f.locks.createCalls)
			}
		})
	}
}

func TestBookRejectsInactiveWeekday(t *testing.T) {
	f := newBookingFixture(t)
	req := bookingRequest()
	req.Date = "2026-09-08"

	_, err := f.svc.Book(context.Background(), req)
	if !apperrors.IsSlotUnavailable(err) {
		t.Fatalf("expected slot unavailable on inactive weekday, got %v", err)
	}
}

func TestBookRejectsVacationDate(t *testing.T) {
	f := newBookingFixture(t)
	f.schedules.schedule.Vacations = []model.Vacation{
		{Enabled: true, StartDate: "2026-09-05", EndDate: "2026-09-10"},
	}

	_, err := f.svc.Book(context.Background(), bookingRequest())
	if !apperrors.IsSlotUnavailable(err) {
		t.Fatalf("expected slot unavailable during vacation, got %v", err)
	}
}

func TestBookRejectsDisabledSchedule(t *testing.T) {
	f := newBookingFixture(t)
	f.schedules.schedule.Enabled = false

	_, err := f.svc.Book(context.Background(), bookingRequest())
	if !apperrors.IsSlotUnavailable(err) {
		t.Fatalf("expected slot unavailable for disabled schedule, got %v", err)
	}
}

func TestBookRejectsPastDate(t *testing.T) {
	f := newBookingFixture(t)
	req := bookingRequest()
	req.Date = "2026-08-31"

	_, err := f.svc.Book(context.Background(), req)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error for past date, got %v", err)
	}
}

func TestBookRejectsSameDayPastTime(t *testing.T) {
	f := newBookingFixture(t)
	f.svc.now = func() time.Time {
		return time.Date(2026, time.September, 7, 10, 0, 0, 0, time.UTC)
	}
	req := bookingRequest()
	req.Date = "2026-09-07"

	_, err := f.svc.Book(context.Background(), req)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error for same-day past slot, got %v", err)
	}
}

func TestBookAcceptsHorizonEndDate(t *testing.T) {
	f := newBookingFixture(t)
	// Two months from Tuesday Sep 1 is Sunday Nov 1, the last bookable day.
	f.schedules.schedule.WorkDays[model.Sunday].Active = true
	req := bookingRequest()
	req.Date = "2026-11-01"

	if _, err := f.svc.Book(context.Background(), req); err != nil {
		t.Fatalf("horizon-end date must be bookable: %v", err)
	}
}

func TestBookRejectsDateBeyondHorizon(t *testing.T) {
	f := newBookingFixture(t)
	req := bookingRequest()
	req.Date = "2026-11-02"

	_, err := f.svc.Book(context.Background(), req)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error beyond horizon, got %v", err)
	}
}

func TestBookRejectsInactiveService(t *testing.T) {
	f := newBookingFixture(t)
	f.services.service.Active = false

	_, err := f.svc.Book(context.Background(), bookingRequest())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error for inactive service, got %v", err)
	}
}

func TestBookHonorsRequestedStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		want    string
		wantErr bool
	}{
		{name: "default is confirmed", status: "", want: model.StatusConfirmed},
		{name: "pending accepted", status: model.StatusPending, want: model.StatusPending},
		{name: "confirmed accepted", status: model.StatusConfirmed, want: model.StatusConfirmed},
		{name: "cancelled rejected", status: model.StatusCancelled, wantErr: true},
		{name: "completed rejected", status: model.StatusCompleted, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			req := bookingRequest()
			req.Status = tt.status

			appointment, err := f.svc.Book(context.Background(), req)
			if tt.wantErr {
				appErr := apperrors.AsAppError(err)
				if appErr == nil || appErr.Code != apperrors.CodeInvalidInput {
					t.Fatalf("expected invalid input, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if appointment.Status != tt.want {
				t.Errorf("expected status %q, got %q", tt.want, appointment.Status)
			}
		})
	}
}

func TestGetForDateReturnsBlockingAppointments(t *testing.T) {
	f := newBookingFixture(t)
	f.repo.findBlockingForDateFunc = func(_ context.Context, specialistID, date string) ([]*model.Appointment, error) {
		if specialistID != "spec-1" || date != "2026-09-07" {
			t.Errorf("unexpected query: %s %s", specialistID, date)
		}
		return []*model.Appointment{
			{StartTime: "10:00", EndTime: "10:30", Status: model.StatusConfirmed},
		}, nil
	}

	appointments, err := f.svc.GetForDate(context.Background(), "spec-1", "2026-09-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(appointments) != 1 {
		t.Fatalf("expected one appointment, got %d", len(appointments))
	}

	if _, err := f.svc.GetForDate(context.Background(), "spec-1", "07/09/2026"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestBookSurvivesPublishFailure(t *testing.T) {
	f := newBookingFixture(t)
	f.publisher.err = errors.New("broker unreachable")

	if _, err := f.svc.Book(context.Background(), bookingRequest()); err != nil {
		t.Fatalf("event publish failure must not fail the booking: %v", err)
	}
	if f.repo.createCalls != 1 {
		t.Errorf("expected appointment stored, got %d creates", f.repo.createCalls)
	}
}

func TestCancelConfirmedAppointment(t *testing.T) {
	f := newBookingFixture(t)
	var updatedStatus string
	f.repo.findByIDFunc = func(_ context.Context, id string) (*model.Appointment, error) {
		return &model.Appointment{
			ID:           id,
			SpecialistID: "spec-1",
			Date:         "2026-09-07",
			Status:       model.StatusConfirmed,
		}, nil
	}
	f.repo.updateStatusFunc = func(_ context.Context, _ string, status string) error {
		updatedStatus = status
		return nil
	}

	if err := f.svc.Cancel(context.Background(), testServiceID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updatedStatus != model.StatusCancelled {
		t.Errorf("expected status update to cancelled, got %q", updatedStatus)
	}
	if len(f.invalidator.invalidated) != 1 {
		t.Errorf("expected cache invalidation on cancel, got %v", f.invalidator.invalidated)
	}
	if len(f.publisher.published) != 1 || f.publisher.published[0].GetEventType() != kafka.EventAppointmentCancelled {
		t.Errorf("expected cancellation event, got %v", f.publisher.published)
	}
}

func TestCancelRejectsTerminalStates(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{name: "already cancelled", status: model.StatusCancelled},
		{name: "completed", status: model.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			f.repo.findByIDFunc = func(_ context.Context, id string) (*model.Appointment, error) {
				return &model.Appointment{ID: id, Status: tt.status}, nil
			}

			err := f.svc.Cancel(context.Background(), testServiceID)
			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.Code != apperrors.CodeConflict {
				t.Fatalf("expected conflict, got %v", err)
			}
		})
	}
}

func TestCancelNotFound(t *testing.T) {
	f := newBookingFixture(t)

	err := f.svc.Cancel(context.Background(), testServiceID)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

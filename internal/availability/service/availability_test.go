package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	scheduleerrors "wellnest/internal/schedules/errors"
	serviceserrors "wellnest/internal/services/errors"
	"wellnest/pkg/config"
	apperrors "wellnest/pkg/errors"
	"wellnest/pkg/logger"
	"wellnest/pkg/model"
)

type mockScheduleSource struct {
	schedule *model.WorkSchedule
	err      error
	calls    int
}

func (m *mockScheduleSource) FindBySpecialistID(_ context.Context, _ string) (*model.WorkSchedule, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.schedule, nil
}

type mockAppointmentSource struct {
	appointments []*model.Appointment
	err          error
	calls        int
}

func (m *mockAppointmentSource) FindBlockingInRange(_ context.Context, _, _, _ string) ([]*model.Appointment, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.appointments, nil
}

type mockServiceSource struct {
	service *model.Service
	err     error
}

func (m *mockServiceSource) FindByID(_ context.Context, _ string) (*model.Service, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.service, nil
}

func availabilityConfig() *config.Config {
	return &config.Config{
		MaxSlotsPerRequest: 500,
		Log:                logger.New(logger.Config{Level: "error", Format: logger.TEXT, Service: "test"}),
	}
}

func massage30() *model.Service {
	return &model.Service{ID: "svc-1", Name: "Massage", DurationMin: 30, Active: true}
}

func newTestService(t *testing.T, schedules ScheduleSource, appointments AppointmentSource, services ServiceSource, withCache bool) *availabilityService {
	t.Helper()
	var cache *SlotCache
	if withCache {
		var err error
		cache, err = NewSlotCache(64)
		if err != nil {
			t.Fatalf("failed to build cache: %v", err)
		}
	}
	svc := NewAvailabilityService(schedules, appointments, services, cache, availabilityConfig())
	return svc.(*availabilityService)
}

func TestGetSlotsWorkedExample(t *testing.T) {
	schedules := &mockScheduleSource{schedule: mondaySchedule()}
	appointments := &mockAppointmentSource{
		appointments: []*model.Appointment{
			{SpecialistID: "spec-1", Date: "2026-09-07", StartTime: "10:00", EndTime: "10:30", Status: model.StatusConfirmed},
		},
	}
	services := &mockServiceSource{service: massage30()}

	svc := newTestService(t, schedules, appointments, services, false)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }

	slots, err := svc.GetSlots(context.Background(), SlotQuery{
		SpecialistID: "spec-1",
		ServiceID:    "svc-1",
		From:         monday,
		To:           monday,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 09:00-10:00 yields 2 slots, 10:30-13:00 yields 5, 14:00-18:00
	// yields 8. The booked 10:00 slot and the lunch hour are gone.
	if len(slots) != 15 {
		t.Fatalf("expected 15 slots, got %d: %v", len(slots), slots)
	}
	if slots[0].StartTime != "09:00" || slots[0].EndTime != "09:30" {
		t.Errorf("first slot wrong: %+v", slots[0])
	}
	if slots[2].StartTime != "10:30" {
		t.Errorf("expected 10:30 after the booked slot, got %s", slots[2].StartTime)
	}
	if last := slots[len(slots)-1]; last.StartTime != "17:30" || last.EndTime != "18:00" {
		t.Errorf("last slot wrong: %+v", last)
	}
	for _, s := range slots {
		if s.StartTime == "10:00" {
			t.Error("booked 10:00 slot must not be offered")
		}
		if s.StartTime == "13:00" || s.StartTime == "13:30" {
			t.Errorf("lunch slot %s must not be offered", s.StartTime)
		}
	}
}

func TestGetSlotsSameDayCutoff(t *testing.T) {
	schedules := &mockScheduleSource{schedule: mondaySchedule()}
	appointments := &mockAppointmentSource{}
	services := &mockServiceSource{service: massage30()}

	svc := newTestService(t, schedules, appointments, services, false)
	// 11:45 on the queried Monday: everything at or before 11:45 is gone.
	svc.now = func() time.Time { return time.Date(2026, 9, 7, 11, 45, 0, 0, time.UTC) }

	slots, err := svc.GetSlots(context.Background(), SlotQuery{
		SpecialistID: "spec-1",
		ServiceID:    "svc-1",
		From:         monday,
		To:           monday,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(slots) == 0 {
		t.Fatal("expected afternoon slots")
	}
	if slots[0].StartTime != "12:00" {
		t.Errorf("expected first offered slot at 12:00, got %s", slots[0].StartTime)
	}
}

func TestGetSlotsLimitCapsResults(t *testing.T) {
	schedules := &mockScheduleSource{schedule: mondaySchedule()}
	services := &mockServiceSource{service: massage30()}

	svc := newTestService(t, schedules, &mockAppointmentSource{}, services, false)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }

	slots, err := svc.GetSlots(context.Background(), SlotQuery{
		SpecialistID: "spec-1",
		ServiceID:    "svc-1",
		From:         monday,
		To:           monday.AddDate(0, 0, 21),
		Limit:        3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 3 {
		t.Errorf("expected 3 slots, got %d", len(slots))
	}
}

func TestGetSlotsDisabledScheduleYieldsEmptyList(t *testing.T) {
	ws := mondaySchedule()
	ws.Enabled = false
	schedules := &mockScheduleSource{schedule: ws}
	services := &mockServiceSource{service: massage30()}

	svc := newTestService(t, schedules, &mockAppointmentSource{}, services, false)

	slots, err := svc.GetSlots(context.Background(), SlotQuery{
		SpecialistID: "spec-1",
		ServiceID:    "svc-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slots == nil || len(slots) != 0 {
		t.Errorf("expected empty slot list, got %v", slots)
	}
}

func TestGetSlotsScheduleNotFound(t *testing.T) {
	schedules := &mockScheduleSource{err: fmt.Errorf("%w: spec-1", scheduleerrors.ErrNotFound)}
	services := &mockServiceSource{service: massage30()}

	svc := newTestService(t, schedules, &mockAppointmentSource{}, services, false)

	_, err := svc.GetSlots(context.Background(), SlotQuery{
		SpecialistID: "spec-1",
		ServiceID:    "svc-1",
	})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", apperrors.AsAppError(err).Code)
	}
}

func TestGetSlotsUnknownService(t *testing.T) {
	schedules := &mockScheduleSource{schedule: mondaySchedule()}
	services := &mockServiceSource{err: fmt.Errorf("%w: svc-9", serviceserrors.ErrNotFound)}

	svc := newTestService(t, schedules, &mockAppointmentSource{}, services, false)

	_, err := svc.GetSlots(context.Background(), SlotQuery{
		SpecialistID: "spec-1",
		ServiceID:    "svc-9",
	})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", apperrors.AsAppError(err).Code)
	}
}

func TestGetSlotsInactiveService(t *testing.T) {
	schedules := &mockScheduleSource{schedule: mondaySchedule()}
	inactive := massage30()
	inactive.Active = false
	services := &mockServiceSource{service: inactive}

	svc := newTestService(t, schedules, &mockAppointmentSource{}, services, false)

	_, err := svc.GetSlots(context.Background(), SlotQuery{
		SpecialistID: "spec-1",
		ServiceID:    "svc-1",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %s", apperrors.AsAppError(err).Code)
	}
}

func TestGetSlotsWindowBeyondHorizonIsEmpty(t *testing.T) {
	schedules := &mockScheduleSource{schedule: mondaySchedule()}
	services := &mockServiceSource{service: massage30()}

	svc := newTestService(t, schedules, &mockAppointmentSource{}, services, false)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }

	// Horizon is 2 months from Sep 1; December is out of reach.
	slots, err := svc.GetSlots(context.Background(), SlotQuery{
		SpecialistID: "spec-1",
		ServiceID:    "svc-1",
		From:         time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		To:           time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots beyond the horizon, got %d", len(slots))
	}
}

func TestGetSlotsHorizonEndDateOffered(t *testing.T) {
	ws := mondaySchedule()
	ws.WorkDays[model.Sunday].Active = true
	schedules := &mockScheduleSource{schedule: ws}
	services := &mockServiceSource{service: massage30()}

	svc := newTestService(t, schedules, &mockAppointmentSource{}, services, false)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }

	// Two months from Sep 1 is Sunday Nov 1, the last bookable day.
	horizonEnd := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	slots, err := svc.GetSlots(context.Background(), SlotQuery{
		SpecialistID: "spec-1",
		ServiceID:    "svc-1",
		From:         horizonEnd,
		To:           horizonEnd,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots on the horizon-end date")
	}

	dayAfter := horizonEnd.AddDate(0, 0, 1)
	slots, err = svc.GetSlots(context.Background(), SlotQuery{
		SpecialistID: "spec-1",
		ServiceID:    "svc-1",
		From:         dayAfter,
		To:           dayAfter,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots past the horizon end, got %d", len(slots))
	}
}

func TestGetSlotsLongerServiceSkipsShortFragments(t *testing.T) {
	ws := mondaySchedule()
	ws.WorkDays[model.Monday].StartTime = "10:00"
	ws.WorkDays[model.Monday].EndTime = "10:45"
	ws.WorkDays[model.Monday].LunchBreaks = nil
	schedules := &mockScheduleSource{schedule: ws}
	services := &mockServiceSource{service: &model.Service{ID: "svc-2", Name: "Long session", DurationMin: 60, Active: true}}

	svc := newTestService(t, schedules, &mockAppointmentSource{}, services, false)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }

	slots, err := svc.GetSlots(context.Background(), SlotQuery{
		SpecialistID: "spec-1",
		ServiceID:    "svc-2",
		From:         monday,
		To:           monday,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("a 45-minute day cannot host a 60-minute slot, got %v", slots)
	}
}

func TestGetSlotsCacheSkipsAppointmentQuery(t *testing.T) {
	schedules := &mockScheduleSource{schedule: mondaySchedule()}
	appointments := &mockAppointmentSource{}
	services := &mockServiceSource{service: massage30()}

	svc := newTestService(t, schedules, appointments, services, true)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }

	q := SlotQuery{SpecialistID: "spec-1", ServiceID: "svc-1", From: monday, To: monday}

	if _, err := svc.GetSlots(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appointments.calls != 1 {
		t.Fatalf("expected one appointment query, got %d", appointments.calls)
	}

	if _, err := svc.GetSlots(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appointments.calls != 1 {
		t.Errorf("cached day must not re-query appointments, got %d calls", appointments.calls)
	}
}

func TestGetSlotsDurationChangeVisibleAfterInvalidateAll(t *testing.T) {
	schedules := &mockScheduleSource{schedule: mondaySchedule()}
	appointments := &mockAppointmentSource{}
	services := &mockServiceSource{service: massage30()}

	svc := newTestService(t, schedules, appointments, services, true)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }

	q := SlotQuery{SpecialistID: "spec-1", ServiceID: "svc-1", From: monday, To: monday, StepMin: 15}

	slots, err := svc.GetSlots(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) == 0 || slots[0].EndTime != "09:30" {
		t.Fatalf("expected 30-minute slots first, got %v", slots)
	}

	services.service.DurationMin = 60
	svc.InvalidateAll()

	slots, err = svc.GetSlots(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots for the longer duration")
	}
	for _, slot := range slots {
		if slot.StartTime == "09:00" && slot.EndTime != "10:00" {
			t.Errorf("expected the 09:00 slot to span the new duration, got %v", slot)
		}
		if slot.EndTime == "09:30" {
			t.Errorf("stale 30-minute slot served after invalidation: %v", slot)
		}
	}
}

func TestGetSlotsInvalidationForcesRecompute(t *testing.T) {
	schedules := &mockScheduleSource{schedule: mondaySchedule()}
	appointments := &mockAppointmentSource{}
	services := &mockServiceSource{service: massage30()}

	svc := newTestService(t, schedules, appointments, services, true)
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }

	q := SlotQuery{SpecialistID: "spec-1", ServiceID: "svc-1", From: monday, To: monday}

	if _, err := svc.GetSlots(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.InvalidateSpecialist("spec-1")

	if _, err := svc.GetSlots(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appointments.calls != 2 {
		t.Errorf("invalidated specialist must re-query appointments, got %d calls", appointments.calls)
	}
}

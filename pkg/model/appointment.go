package model

import (
	"time"

	"wellnest/pkg/interval"
)

// Appointment statuses. Only pending and confirmed block availability.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment is a reserved slot for one specialist. The engine
// preserves the invariant that no two non-cancelled appointments for
// the same specialist overlap on the same date.
type Appointment struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	SpecialistID string    `json:"specialist_id" bson:"specialist_id" validate:"required,min=1,max=64"`
	ServiceID    string    `json:"service_id" bson:"service_id" validate:"required,mongodb"`
	Date         string    `json:"date" bson:"date" validate:"required,caldate"`
	StartTime    string    `json:"start_time" bson:"start_time" validate:"required,clock"`
	EndTime      string    `json:"end_time" bson:"end_time" validate:"required,clock"`
	Status       string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	ClientName   string    `json:"client_name" bson:"client_name" validate:"required,min=2,max=100"`
	ClientPhone  string    `json:"client_phone,omitempty" bson:"client_phone" validate:"omitempty,min=5,max=20"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Blocks reports whether the appointment occupies its slot.
func (a *Appointment) Blocks() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// Span parses the appointment's time window.
func (a *Appointment) Span() (interval.Span, error) {
	return interval.ParseSpan(a.StartTime, a.EndTime)
}

// BlockingSpans extracts the time windows of all appointments that
// block availability, skipping cancelled and completed ones.
func BlockingSpans(appointments []*Appointment) ([]interval.Span, error) {
	var spans []interval.Span
	for _, a := range appointments {
		if !a.Blocks() {
			continue
		}
		span, err := a.Span()
		if err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}
	return spans, nil
}

package model

import "time"

// AppointmentLock is an advisory lock serializing commit attempts for a
// single (specialist, date, start) slot. The unique _id insert is the
// mutual-exclusion primitive; ExpiresAt backs a TTL index so crashed
// commits cannot wedge a slot.
type AppointmentLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

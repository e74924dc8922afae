package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AvailabilityWindow is a doctor-declared date plus time range offered
// for booking. Times are wall-clock "HH:MM" strings; the window's date
// carries no time-of-day component.
type AvailabilityWindow struct {
	Base
	DoctorID            uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date                time.Time `db:"available_date" json:"date"`
	StartTime           string    `db:"start_time" json:"start_time"`
	EndTime             string    `db:"end_time" json:"end_time"`
	SlotDurationMinutes int       `db:"slot_duration_minutes" json:"slot_duration_minutes"`
	MaxPatientsPerSlot  int       `db:"max_patients_per_slot" json:"max_patients_per_slot"`
	CreatedBy           uuid.UUID `db:"created_by" json:"created_by"`
}

// SlotCount returns how many whole slots fit in the window. A trailing
// partial period is dropped, never exposed as bookable.
func (w *AvailabilityWindow) SlotCount() int {
	start, err := MinuteOfDay(w.StartTime)
	if err != nil {
		return 0
	}
	end, err := MinuteOfDay(w.EndTime)
	if err != nil {
		return 0
	}
	if w.SlotDurationMinutes <= 0 || end <= start {
		return 0
	}
	return (end - start) / w.SlotDurationMinutes
}

// Slot is a discrete bookable sub-interval of a window. Slots are derived
// on demand and never persisted; their identity is (window_id, ordinal).
type Slot struct {
	WindowID  uuid.UUID `json:"window_id"`
	Ordinal   int       `json:"ordinal"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

// SlotAvailability is a slot together with its live occupancy, as shown
// to booking clients.
type SlotAvailability struct {
	Slot
	BookedCount int `json:"booked_count"`
	Capacity    int `json:"capacity"`
}

// MinuteOfDay parses a "HH:MM" clock string into minutes since midnight.
func MinuteOfDay(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ClockString formats minutes since midnight back into "HH:MM".
func ClockString(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

type CreateWindowRequest struct {
	DoctorID            uuid.UUID `json:"doctor_id" validate:"required"`
	Date                string    `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime           string    `json:"start_time" validate:"required"`
	EndTime             string    `json:"end_time" validate:"required"`
	SlotDurationMinutes int       `json:"slot_duration_minutes" validate:"required,gt=0"`
	MaxPatientsPerSlot  int       `json:"max_patients_per_slot" validate:"required,gte=1"`
}

type UpdateWindowRequest struct {
	Date                *string `json:"date"`
	StartTime           *string `json:"start_time"`
	EndTime             *string `json:"end_time"`
	SlotDurationMinutes *int    `json:"slot_duration_minutes"`
	MaxPatientsPerSlot  *int    `json:"max_patients_per_slot"`
}

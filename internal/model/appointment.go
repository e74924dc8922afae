package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

type Appointment struct {
	Base
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID     uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	WindowID     uuid.UUID         `db:"window_id" json:"window_id"`
	SlotOrdinal  int               `db:"slot_ordinal" json:"slot_ordinal"`
	Reason       string            `db:"reason" json:"reason,omitempty"`
	Status       AppointmentStatus `db:"status" json:"status"`
	CancelReason *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

// Live reports whether the appointment counts against slot capacity.
// Completed appointments stay live so a finished visit keeps its seat in
// the historical record.
func (a *Appointment) Live() bool {
	return a.Status == AppointmentStatusScheduled || a.Status == AppointmentStatusCompleted
}

type BookAppointmentRequest struct {
	WindowID    uuid.UUID  `json:"window_id" validate:"required"`
	SlotOrdinal *int       `json:"slot_ordinal" validate:"required,gte=0"`
	Reason      string     `json:"reason" validate:"max=1000"`
	PatientID   *uuid.UUID `json:"patient_id,omitempty"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type AppointmentFilters struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	WindowID  uuid.UUID
	Status    AppointmentStatus
}

// AppointmentDetail joins an appointment with its window's calendar date
// for reporting and display.
type AppointmentDetail struct {
	Appointment
	Date      time.Time `db:"available_date" json:"date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
}

// DashboardStats is the role-scoped aggregate shown on dashboards.
type DashboardStats struct {
	TodayCount     int `json:"today_count"`
	UpcomingCount  int `json:"upcoming_count"`
	CompletedCount int `json:"completed_count"`
	TotalCount     int `json:"total_count"`
}

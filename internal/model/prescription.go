package model

import (
	"time"

	"github.com/google/uuid"
)

// Prescription is keyed by appointment; it may exist only once the
// referenced appointment is completed.
type Prescription struct {
	Base
	AppointmentID uuid.UUID    `db:"appointment_id" json:"appointment_id"`
	Diagnosis     string       `db:"diagnosis" json:"diagnosis"`
	Instructions  string       `db:"instructions" json:"instructions,omitempty"`
	FollowUpDate  *time.Time   `db:"follow_up_date" json:"follow_up_date,omitempty"`
	Medications   []Medication `db:"-" json:"medications,omitempty"`
}

type Medication struct {
	Base
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	MedicineName   string    `db:"medicine_name" json:"medicine_name"`
	Dosage         string    `db:"dosage" json:"dosage,omitempty"`
	Frequency      string    `db:"frequency" json:"frequency,omitempty"`
	Duration       string    `db:"duration" json:"duration,omitempty"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
}

type CreatePrescriptionRequest struct {
	AppointmentID uuid.UUID           `json:"appointment_id" validate:"required"`
	Diagnosis     string              `json:"diagnosis" validate:"required,max=2000"`
	Instructions  string              `json:"instructions" validate:"max=2000"`
	FollowUpDate  string              `json:"follow_up_date" validate:"omitempty,datetime=2006-01-02"`
	Medications   []MedicationRequest `json:"medications" validate:"dive"`
}

type MedicationRequest struct {
	MedicineName string `json:"medicine_name" validate:"required,max=200"`
	Dosage       string `json:"dosage" validate:"max=100"`
	Frequency    string `json:"frequency" validate:"max=100"`
	Duration     string `json:"duration" validate:"max=100"`
	Notes        string `json:"notes" validate:"max=500"`
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/model"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(db *sqlx.DB) *prescriptionRepository {
	return &prescriptionRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *prescriptionRepository) Create(ctx context.Context, prescription *model.Prescription) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO prescriptions (id, appointment_id, diagnosis, instructions, follow_up_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.ExecContext(ctx, query,
			prescription.ID,
			prescription.AppointmentID,
			prescription.Diagnosis,
			prescription.Instructions,
			prescription.FollowUpDate,
			prescription.CreatedAt,
			prescription.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create prescription: %w", err)
		}

		for _, med := range prescription.Medications {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO medications (id, prescription_id, medicine_name, dosage, frequency, duration, notes, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			`,
				med.ID, med.PrescriptionID, med.MedicineName, med.Dosage,
				med.Frequency, med.Duration, med.Notes, med.CreatedAt, med.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to create medication: %w", err)
			}
		}
		return nil
	})
}

func (r *prescriptionRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error) {
	var prescription model.Prescription
	err := r.db.GetContext(ctx, &prescription, `
		SELECT id, appointment_id, diagnosis, instructions, follow_up_date, created_at, updated_at
		FROM prescriptions
		WHERE appointment_id = $1
	`, appointmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("prescription")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}

	if err := r.loadMedications(ctx, &prescription); err != nil {
		return nil, err
	}
	return &prescription, nil
}

func (r *prescriptionRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	query := `
		SELECT p.id, p.appointment_id, p.diagnosis, p.instructions, p.follow_up_date, p.created_at, p.updated_at
		FROM prescriptions p
		JOIN appointments a ON a.id = p.appointment_id
		WHERE a.patient_id = $1
		ORDER BY p.created_at DESC
	`
	return r.listWithMedications(ctx, query, patientID)
}

func (r *prescriptionRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Prescription, error) {
	query := `
		SELECT p.id, p.appointment_id, p.diagnosis, p.instructions, p.follow_up_date, p.created_at, p.updated_at
		FROM prescriptions p
		JOIN appointments a ON a.id = p.appointment_id
		WHERE a.doctor_id = $1
		ORDER BY p.created_at DESC
	`
	return r.listWithMedications(ctx, query, doctorID)
}

func (r *prescriptionRepository) listWithMedications(ctx context.Context, query string, arg interface{}) ([]*model.Prescription, error) {
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, arg); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	for _, p := range prescriptions {
		if err := r.loadMedications(ctx, p); err != nil {
			return nil, err
		}
	}
	return prescriptions, nil
}

func (r *prescriptionRepository) loadMedications(ctx context.Context, prescription *model.Prescription) error {
	var meds []model.Medication
	err := r.db.SelectContext(ctx, &meds, `
		SELECT id, prescription_id, medicine_name, dosage, frequency, duration, notes, created_at, updated_at
		FROM medications
		WHERE prescription_id = $1
		ORDER BY created_at ASC
	`, prescription.ID)
	if err != nil {
		return fmt.Errorf("failed to load medications: %w", err)
	}
	prescription.Medications = meds
	return nil
}

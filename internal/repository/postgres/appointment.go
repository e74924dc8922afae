package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/clinic-api/internal/model"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) *appointmentRepository {
	return &appointmentRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, window_id, slot_ordinal,
			reason, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.WindowID,
		appointment.SlotOrdinal,
		appointment.Reason,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, window_id, slot_ordinal,
			   reason, status, cancel_reason, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $1, reason = $2, cancel_reason = $3, updated_at = $4
		WHERE id = $5
	`
	appointment.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		appointment.Status,
		appointment.Reason,
		appointment.CancelReason,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment")
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, window_id, slot_ordinal,
			   reason, status, cancel_reason, created_at, updated_at
		FROM appointments
		WHERE 1=1
	`
	query, args := applyFilters(query, filters)
	query += " ORDER BY created_at ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListDetailed(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	query := `
		SELECT a.id, a.patient_id, a.doctor_id, a.window_id, a.slot_ordinal,
			   a.reason, a.status, a.cancel_reason, a.created_at, a.updated_at,
			   w.available_date, w.start_time, w.end_time
		FROM appointments a
		JOIN availability_windows w ON w.id = a.window_id
		WHERE 1=1
	`
	query, args := applyDetailedFilters(query, filters)
	query += " ORDER BY a.created_at ASC"

	var details []*model.AppointmentDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointment details: %w", err)
	}
	return details, nil
}

func (r *appointmentRepository) ListLiveByWindow(ctx context.Context, windowID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, window_id, slot_ordinal,
			   reason, status, cancel_reason, created_at, updated_at
		FROM appointments
		WHERE window_id = $1
		AND status IN ('scheduled', 'completed')
		ORDER BY created_at ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, windowID); err != nil {
		return nil, fmt.Errorf("failed to list live appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) CountLiveForSlot(ctx context.Context, windowID uuid.UUID, ordinal int) (int, error) {
	query := `
		SELECT COUNT(*) FROM appointments
		WHERE window_id = $1
		AND slot_ordinal = $2
		AND status IN ('scheduled', 'completed')
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, windowID, ordinal); err != nil {
		return 0, fmt.Errorf("failed to count slot occupancy: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) PatientHoldsSlot(ctx context.Context, patientID, windowID uuid.UUID, ordinal int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1
			AND window_id = $2
			AND slot_ordinal = $3
			AND status IN ('scheduled', 'completed')
		)
	`
	var holds bool
	if err := r.db.GetContext(ctx, &holds, query, patientID, windowID, ordinal); err != nil {
		return false, fmt.Errorf("failed to check duplicate booking: %w", err)
	}
	return holds, nil
}

func applyFilters(query string, filters *model.AppointmentFilters) (string, []interface{}) {
	return buildFilterClauses(query, filters, "")
}

func applyDetailedFilters(query string, filters *model.AppointmentFilters) (string, []interface{}) {
	return buildFilterClauses(query, filters, "a.")
}

func buildFilterClauses(query string, filters *model.AppointmentFilters, prefix string) (string, []interface{}) {
	var args []interface{}
	if filters == nil {
		return query, args
	}

	argCount := 1
	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND %sdoctor_id = $%d", prefix, argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}
	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND %spatient_id = $%d", prefix, argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.WindowID != uuid.Nil {
		query += fmt.Sprintf(" AND %swindow_id = $%d", prefix, argCount)
		args = append(args, filters.WindowID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND %sstatus = $%d", prefix, argCount)
		args = append(args, filters.Status)
		argCount++
	}
	return query, args
}

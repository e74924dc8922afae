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

type scheduleRepository struct {
	BaseRepository
}

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *scheduleRepository) Create(ctx context.Context, window *model.AvailabilityWindow) error {
	query := `
		INSERT INTO availability_windows (
			id, doctor_id, available_date, start_time, end_time,
			slot_duration_minutes, max_patients_per_slot, created_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		window.ID,
		window.DoctorID,
		window.Date,
		window.StartTime,
		window.EndTime,
		window.SlotDurationMinutes,
		window.MaxPatientsPerSlot,
		window.CreatedBy,
		window.CreatedAt,
		window.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.AvailabilityWindow, error) {
	query := `
		SELECT id, doctor_id, available_date, start_time, end_time,
			   slot_duration_minutes, max_patients_per_slot, created_by,
			   created_at, updated_at
		FROM availability_windows
		WHERE id = $1
	`
	var window model.AvailabilityWindow
	err := r.db.GetContext(ctx, &window, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("window")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get window: %w", err)
	}
	return &window, nil
}

func (r *scheduleRepository) Update(ctx context.Context, window *model.AvailabilityWindow) error {
	query := `
		UPDATE availability_windows
		SET available_date = $1, start_time = $2, end_time = $3,
			slot_duration_minutes = $4, max_patients_per_slot = $5, updated_at = $6
		WHERE id = $7
	`
	window.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		window.Date,
		window.StartTime,
		window.EndTime,
		window.SlotDurationMinutes,
		window.MaxPatientsPerSlot,
		window.UpdatedAt,
		window.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update window: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("window")
	}
	return nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM availability_windows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete window: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("window")
	}
	return nil
}

func (r *scheduleRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	query := `
		SELECT id, doctor_id, available_date, start_time, end_time,
			   slot_duration_minutes, max_patients_per_slot, created_by,
			   created_at, updated_at
		FROM availability_windows
		WHERE doctor_id = $1
		ORDER BY available_date ASC, start_time ASC
	`
	var windows []*model.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	return windows, nil
}

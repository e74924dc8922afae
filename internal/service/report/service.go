// Package report computes dashboard aggregates from appointments joined
// with their window dates. Comparisons are by calendar date only; the
// time of day never participates.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type Service struct {
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	patients     repository.PatientRepository

	// now is injectable so date-boundary behavior is testable.
	now func() time.Time
}

func NewService(
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
) *Service {
	return &Service{
		appointments: appointments,
		doctors:      doctors,
		patients:     patients,
		now:          time.Now,
	}
}

// DashboardStats aggregates the actor's visible appointments. Admins see
// every appointment; doctors and patients only their own. Today is a
// pure date match regardless of status; upcoming is strictly after
// today and still scheduled.
func (s *Service) DashboardStats(ctx context.Context, actor *model.Actor) (*model.DashboardStats, error) {
	filters := &model.AppointmentFilters{}

	switch {
	case actor.HasRole(model.RoleAdmin):
	case actor.HasRole(model.RoleDoctor):
		doctor, err := s.doctors.GetByUser(ctx, actor.ID)
		if err != nil {
			return nil, apperrors.Forbidden("no doctor profile for actor")
		}
		filters.DoctorID = doctor.ID
	case actor.HasRole(model.RolePatient):
		patient, err := s.patients.GetByUser(ctx, actor.ID)
		if err != nil {
			return nil, apperrors.Forbidden("no patient profile for actor")
		}
		filters.PatientID = patient.ID
	default:
		return nil, apperrors.Forbidden("report access denied")
	}

	details, err := s.appointments.ListDetailed(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments for stats: %w", err)
	}

	today := dateOnly(s.now())
	stats := &model.DashboardStats{}
	for _, d := range details {
		stats.TotalCount++
		if d.Status == model.AppointmentStatusCompleted {
			stats.CompletedCount++
		}
		date := dateOnly(d.Date)
		if date.Equal(today) {
			stats.TodayCount++
		}
		if d.Status == model.AppointmentStatusScheduled && date.After(today) {
			stats.UpcomingCount++
		}
	}
	return stats, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

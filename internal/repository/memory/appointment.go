package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

// AppointmentRepo implements repository.AppointmentRepository over the
// shared store.
type AppointmentRepo struct {
	store *Store
}

func (r *AppointmentRepo) Create(ctx context.Context, appointment *model.Appointment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *appointment
	r.store.appointments[appointment.ID] = &cp
	return nil
}

func (r *AppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment")
	}
	cp := *a
	return &cp, nil
}

func (r *AppointmentRepo) Update(ctx context.Context, appointment *model.Appointment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.appointments[appointment.ID]; !ok {
		return apperrors.NotFound("appointment")
	}
	appointment.UpdatedAt = time.Now()
	cp := *appointment
	r.store.appointments[appointment.ID] = &cp
	return nil
}

func (r *AppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var appointments []*model.Appointment
	for _, a := range r.store.appointments {
		if !matchesFilters(a, filters) {
			continue
		}
		cp := *a
		appointments = append(appointments, &cp)
	}
	sortByCreation(appointments)
	return appointments, nil
}

func (r *AppointmentRepo) ListDetailed(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var details []*model.AppointmentDetail
	for _, a := range r.store.appointments {
		if !matchesFilters(a, filters) {
			continue
		}
		w, ok := r.store.windows[a.WindowID]
		if !ok {
			continue
		}
		details = append(details, &model.AppointmentDetail{
			Appointment: *a,
			Date:        w.Date,
			StartTime:   w.StartTime,
			EndTime:     w.EndTime,
		})
	}
	sort.Slice(details, func(i, j int) bool {
		return details[i].CreatedAt.Before(details[j].CreatedAt)
	})
	return details, nil
}

func (r *AppointmentRepo) ListLiveByWindow(ctx context.Context, windowID uuid.UUID) ([]*model.Appointment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var appointments []*model.Appointment
	for _, a := range r.store.appointments {
		if a.WindowID == windowID && a.Live() {
			cp := *a
			appointments = append(appointments, &cp)
		}
	}
	sortByCreation(appointments)
	return appointments, nil
}

func (r *AppointmentRepo) CountLiveForSlot(ctx context.Context, windowID uuid.UUID, ordinal int) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, a := range r.store.appointments {
		if a.WindowID == windowID && a.SlotOrdinal == ordinal && a.Live() {
			count++
		}
	}
	return count, nil
}

func (r *AppointmentRepo) PatientHoldsSlot(ctx context.Context, patientID, windowID uuid.UUID, ordinal int) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, a := range r.store.appointments {
		if a.PatientID == patientID && a.WindowID == windowID && a.SlotOrdinal == ordinal && a.Live() {
			return true, nil
		}
	}
	return false, nil
}

func matchesFilters(a *model.Appointment, filters *model.AppointmentFilters) bool {
	if filters == nil {
		return true
	}
	if filters.DoctorID != uuid.Nil && a.DoctorID != filters.DoctorID {
		return false
	}
	if filters.PatientID != uuid.Nil && a.PatientID != filters.PatientID {
		return false
	}
	if filters.WindowID != uuid.Nil && a.WindowID != filters.WindowID {
		return false
	}
	if filters.Status != "" && a.Status != filters.Status {
		return false
	}
	return true
}

func sortByCreation(appointments []*model.Appointment) {
	sort.Slice(appointments, func(i, j int) bool {
		return appointments[i].CreatedAt.Before(appointments[j].CreatedAt)
	})
}

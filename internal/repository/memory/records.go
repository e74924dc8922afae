package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

// PrescriptionRepo implements repository.PrescriptionRepository over the
// shared store.
type PrescriptionRepo struct {
	store *Store
}

func (r *PrescriptionRepo) Create(ctx context.Context, prescription *model.Prescription) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *prescription
	cp.Medications = append([]model.Medication(nil), prescription.Medications...)
	r.store.prescriptions[prescription.ID] = &cp
	return nil
}

func (r *PrescriptionRepo) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.prescriptions {
		if p.AppointmentID == appointmentID {
			return copyPrescription(p), nil
		}
	}
	return nil, apperrors.NotFound("prescription")
}

func (r *PrescriptionRepo) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	return r.listWhere(func(a *model.Appointment) bool { return a.PatientID == patientID })
}

func (r *PrescriptionRepo) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Prescription, error) {
	return r.listWhere(func(a *model.Appointment) bool { return a.DoctorID == doctorID })
}

func (r *PrescriptionRepo) listWhere(match func(*model.Appointment) bool) ([]*model.Prescription, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var prescriptions []*model.Prescription
	for _, p := range r.store.prescriptions {
		a, ok := r.store.appointments[p.AppointmentID]
		if !ok || !match(a) {
			continue
		}
		prescriptions = append(prescriptions, copyPrescription(p))
	}
	sort.Slice(prescriptions, func(i, j int) bool {
		return prescriptions[i].CreatedAt.After(prescriptions[j].CreatedAt)
	})
	return prescriptions, nil
}

func copyPrescription(p *model.Prescription) *model.Prescription {
	cp := *p
	cp.Medications = append([]model.Medication(nil), p.Medications...)
	return &cp
}

// AuditRepo implements repository.AuditRepository over the shared store.
type AuditRepo struct {
	store *Store
}

func (r *AuditRepo) Create(ctx context.Context, log *model.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *log
	r.store.auditLogs = append(r.store.auditLogs, &cp)
	return nil
}

func (r *AuditRepo) Cleanup(ctx context.Context, cutoff time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.auditLogs[:0]
	var removed int64
	for _, l := range r.store.auditLogs {
		if l.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	r.store.auditLogs = kept
	return removed, nil
}

func (r *AuditRepo) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var logs []*model.AuditLog
	for _, l := range r.store.auditLogs {
		if filters != nil {
			if filters.ActorID != uuid.Nil && l.ActorID != filters.ActorID {
				continue
			}
			if filters.EntityType != "" && l.EntityType != filters.EntityType {
				continue
			}
			if filters.EntityID != uuid.Nil && l.EntityID != filters.EntityID {
				continue
			}
			if !filters.Since.IsZero() && l.CreatedAt.Before(filters.Since) {
				continue
			}
		}
		cp := *l
		logs = append(logs, &cp)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
	return logs, nil
}

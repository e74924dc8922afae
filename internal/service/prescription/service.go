// Package prescription issues prescriptions against completed
// appointments. The appointment's status is the sole gate; this package
// never mutates appointments.
package prescription

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/internal/service/audit"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type Service struct {
	prescriptions repository.PrescriptionRepository
	appointments  repository.AppointmentRepository
	doctors       repository.DoctorRepository
	patients      repository.PatientRepository
	auditor       *audit.Service
	validate      *validator.Validate
}

func NewService(
	prescriptions repository.PrescriptionRepository,
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	auditor *audit.Service,
) *Service {
	return &Service{
		prescriptions: prescriptions,
		appointments:  appointments,
		doctors:       doctors,
		patients:      patients,
		auditor:       auditor,
		validate:      validator.New(),
	}
}

// Create issues a prescription for a completed appointment. Only the
// doctor who held the visit may prescribe, and each appointment carries
// at most one prescription.
func (s *Service) Create(ctx context.Context, actor *model.Actor, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("invalid prescription request", err)
	}

	appointment, err := s.appointments.Get(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}

	doctor, err := s.doctors.GetByUser(ctx, actor.ID)
	if err != nil || doctor.ID != appointment.DoctorID {
		return nil, apperrors.Forbidden("only the appointment's doctor may prescribe")
	}
	if appointment.Status != model.AppointmentStatusCompleted {
		return nil, apperrors.Conflict("prescription requires a completed appointment", nil)
	}
	if _, err := s.prescriptions.GetByAppointment(ctx, req.AppointmentID); err == nil {
		return nil, apperrors.Conflict("appointment already has a prescription", nil)
	} else if !apperrors.IsKind(err, apperrors.KindNotFound) {
		return nil, err
	}

	now := time.Now()
	prescription := &model.Prescription{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		AppointmentID: req.AppointmentID,
		Diagnosis:     req.Diagnosis,
		Instructions:  req.Instructions,
	}
	if req.FollowUpDate != "" {
		followUp, err := time.Parse("2006-01-02", req.FollowUpDate)
		if err != nil {
			return nil, apperrors.Validation("invalid follow_up_date, expected YYYY-MM-DD", err)
		}
		prescription.FollowUpDate = &followUp
	}
	for _, m := range req.Medications {
		prescription.Medications = append(prescription.Medications, model.Medication{
			Base: model.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			PrescriptionID: prescription.ID,
			MedicineName:   m.MedicineName,
			Dosage:         m.Dosage,
			Frequency:      m.Frequency,
			Duration:       m.Duration,
			Notes:          m.Notes,
		})
	}

	if err := s.prescriptions.Create(ctx, prescription); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}

	s.auditor.Log(ctx, actor.ID, "prescription.create", "prescription", prescription.ID, prescription)
	return prescription, nil
}

func (s *Service) GetByAppointment(ctx context.Context, actor *model.Actor, appointmentID uuid.UUID) (*model.Prescription, error) {
	appointment, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(ctx, actor, appointment); err != nil {
		return nil, err
	}
	return s.prescriptions.GetByAppointment(ctx, appointmentID)
}

func (s *Service) ListOwn(ctx context.Context, actor *model.Actor) ([]*model.Prescription, error) {
	switch {
	case actor.HasRole(model.RoleDoctor):
		doctor, err := s.doctors.GetByUser(ctx, actor.ID)
		if err != nil {
			return nil, apperrors.Forbidden("no doctor profile for actor")
		}
		return s.prescriptions.ListForDoctor(ctx, doctor.ID)
	case actor.HasRole(model.RolePatient):
		patient, err := s.patients.GetByUser(ctx, actor.ID)
		if err != nil {
			return nil, apperrors.Forbidden("no patient profile for actor")
		}
		return s.prescriptions.ListForPatient(ctx, patient.ID)
	}
	return nil, apperrors.Forbidden("prescription access denied")
}

func (s *Service) authorizeParticipant(ctx context.Context, actor *model.Actor, appointment *model.Appointment) error {
	if actor.HasRole(model.RoleAdmin) {
		return nil
	}
	if actor.HasRole(model.RoleDoctor) {
		if doctor, err := s.doctors.GetByUser(ctx, actor.ID); err == nil && doctor.ID == appointment.DoctorID {
			return nil
		}
	}
	if actor.HasRole(model.RolePatient) {
		if patient, err := s.patients.GetByUser(ctx, actor.ID); err == nil && patient.ID == appointment.PatientID {
			return nil
		}
	}
	return apperrors.Forbidden("not a participant of this appointment")
}

// Package appointment is the booking engine. Every booking runs inside a
// per-slot critical section so the capacity check and the insert cannot
// interleave across concurrent requests.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/email"
	"github.com/clinicore/clinic-api/internal/lock"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/internal/service/audit"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

type Service struct {
	appointments repository.AppointmentRepository
	windows      repository.ScheduleRepository
	doctors      repository.DoctorRepository
	patients     repository.PatientRepository
	locker       lock.Locker
	emailSvc     email.Service
	auditor      *audit.Service
	metrics      *metrics.Metrics
	logger       *logger.Logger
	validate     *validator.Validate
}

func NewService(
	appointments repository.AppointmentRepository,
	windows repository.ScheduleRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	locker lock.Locker,
	emailSvc email.Service,
	auditor *audit.Service,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		appointments: appointments,
		windows:      windows,
		doctors:      doctors,
		patients:     patients,
		locker:       locker,
		emailSvc:     emailSvc,
		auditor:      auditor,
		metrics:      m,
		logger:       log,
		validate:     validator.New(),
	}
}

// Book places an appointment in one slot of a window. Patients book for
// themselves; admins book on behalf of an explicit patient and never
// consume a slot as themselves. The capacity and duplicate checks run
// under the slot lock.
func (s *Service) Book(ctx context.Context, actor *model.Actor, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if !actor.HasCapability(model.CapabilityBookAppointments) {
		s.rejected(apperrors.KindForbidden)
		return nil, apperrors.Forbidden("booking requires patient or admin role")
	}
	if err := s.validate.Struct(req); err != nil {
		s.rejected(apperrors.KindValidation)
		return nil, apperrors.Validation("invalid booking request", err)
	}

	patient, err := s.resolvePatient(ctx, actor, req.PatientID)
	if err != nil {
		s.rejected(apperrors.KindOf(err))
		return nil, err
	}

	window, err := s.windows.Get(ctx, req.WindowID)
	if err != nil {
		s.rejected(apperrors.KindOf(err))
		return nil, err
	}
	ordinal := *req.SlotOrdinal
	if ordinal >= window.SlotCount() {
		s.rejected(apperrors.KindNotFound)
		return nil, apperrors.NotFound("slot")
	}

	var appointment *model.Appointment
	start := time.Now()
	err = s.locker.WithSlotLock(ctx, window.ID, ordinal, func(ctx context.Context) error {
		count, err := s.appointments.CountLiveForSlot(ctx, window.ID, ordinal)
		if err != nil {
			return fmt.Errorf("failed to count slot occupancy: %w", err)
		}
		if count >= window.MaxPatientsPerSlot {
			return apperrors.SlotFull("slot is at capacity")
		}

		holds, err := s.appointments.PatientHoldsSlot(ctx, patient.ID, window.ID, ordinal)
		if err != nil {
			return fmt.Errorf("failed to check duplicate booking: %w", err)
		}
		if holds {
			return apperrors.DuplicateBooking("patient already holds this slot")
		}

		now := time.Now()
		appointment = &model.Appointment{
			Base: model.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			PatientID:   patient.ID,
			DoctorID:    window.DoctorID,
			WindowID:    window.ID,
			SlotOrdinal: ordinal,
			Reason:      req.Reason,
			Status:      model.AppointmentStatusScheduled,
		}
		return s.appointments.Create(ctx, appointment)
	})
	s.metrics.BookingLatency.Observe(time.Since(start).Seconds())

	if errors.Is(err, lock.ErrNotAcquired) {
		s.metrics.SlotLockContention.Inc()
		s.rejected(apperrors.KindBusy)
		return nil, apperrors.Busy("slot is being booked, retry shortly")
	}
	if err != nil {
		s.rejected(apperrors.KindOf(err))
		return nil, err
	}

	s.metrics.BookingsTotal.WithLabelValues("booked").Inc()
	s.auditor.Log(ctx, actor.ID, "appointment.book", "appointment", appointment.ID, appointment)
	s.notify(ctx, patient.Email, appointment, window, s.emailSvc.SendBookingConfirmation)
	return appointment, nil
}

// Cancel moves a scheduled appointment to cancelled. Cancelling an
// already cancelled appointment is a no-op; a completed appointment can
// never be cancelled.
func (s *Service) Cancel(ctx context.Context, actor *model.Actor, id uuid.UUID, req *model.CancelAppointmentRequest) (*model.Appointment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("invalid cancel request", err)
	}

	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(ctx, actor, appointment); err != nil {
		return nil, err
	}

	switch appointment.Status {
	case model.AppointmentStatusCancelled:
		return appointment, nil
	case model.AppointmentStatusCompleted:
		return nil, apperrors.IllegalTransition("completed appointment cannot be cancelled")
	}

	appointment.Status = model.AppointmentStatusCancelled
	if req.Reason != "" {
		appointment.CancelReason = &req.Reason
	}
	if err := s.appointments.Update(ctx, appointment); err != nil {
		return nil, err
	}

	s.metrics.BookingsTotal.WithLabelValues("cancelled").Inc()
	s.auditor.Log(ctx, actor.ID, "appointment.cancel", "appointment", appointment.ID, req)

	if patient, err := s.patients.Get(ctx, appointment.PatientID); err == nil {
		if window, err := s.windows.Get(ctx, appointment.WindowID); err == nil {
			s.notify(ctx, patient.Email, appointment, window, s.emailSvc.SendCancellation)
		}
	}
	return appointment, nil
}

// Complete marks a scheduled appointment as completed. Only the assigned
// doctor performs completion; admins manage but do not attest visits.
func (s *Service) Complete(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doctor, err := s.doctors.GetByUser(ctx, actor.ID)
	if err != nil || doctor.ID != appointment.DoctorID {
		return nil, apperrors.Forbidden("only the assigned doctor may complete an appointment")
	}

	if appointment.Status != model.AppointmentStatusScheduled {
		return nil, apperrors.IllegalTransition(
			fmt.Sprintf("cannot complete appointment in status %s", appointment.Status))
	}

	appointment.Status = model.AppointmentStatusCompleted
	if err := s.appointments.Update(ctx, appointment); err != nil {
		return nil, err
	}

	s.metrics.BookingsTotal.WithLabelValues("completed").Inc()
	s.auditor.Log(ctx, actor.ID, "appointment.complete", "appointment", appointment.ID, nil)
	return appointment, nil
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(ctx, actor, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// ListForActor returns the actor's own appointments: an admin sees all,
// a doctor the ones assigned to them, a patient their own bookings.
func (s *Service) ListForActor(ctx context.Context, actor *model.Actor, status model.AppointmentStatus) ([]*model.AppointmentDetail, error) {
	filters := &model.AppointmentFilters{Status: status}

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
		return nil, apperrors.Forbidden("appointment access denied")
	}

	return s.appointments.ListDetailed(ctx, filters)
}

// resolvePatient maps the acting identity to the patient who will hold
// the slot. Admins must name the patient; a doctor-only actor cannot
// book at all, and an admin cannot book for themselves.
func (s *Service) resolvePatient(ctx context.Context, actor *model.Actor, patientID *uuid.UUID) (*model.Patient, error) {
	if patientID != nil {
		if !actor.HasRole(model.RoleAdmin) {
			return nil, apperrors.Forbidden("only admins may book on behalf of a patient")
		}
		return s.patients.Get(ctx, *patientID)
	}
	if !actor.HasRole(model.RolePatient) {
		return nil, apperrors.Forbidden("admins must name the patient when booking")
	}
	patient, err := s.patients.GetByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.Forbidden("no patient profile for actor")
	}
	return patient, nil
}

// authorizeParticipant allows the booking patient, the assigned doctor,
// and admins.
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

type sendFunc func(ctx context.Context, to string, detail *model.AppointmentDetail) error

// notify sends best-effort email. Failures are logged, never surfaced.
func (s *Service) notify(ctx context.Context, to string, appointment *model.Appointment, window *model.AvailabilityWindow, send sendFunc) {
	detail := &model.AppointmentDetail{
		Appointment: *appointment,
		Date:        window.Date,
		StartTime:   window.StartTime,
		EndTime:     window.EndTime,
	}
	if err := send(ctx, to, detail); err != nil {
		s.logger.Error(err, "appointment notification failed", "appointment_id", appointment.ID)
	}
}

func (s *Service) rejected(kind apperrors.Kind) {
	s.metrics.BookingsTotal.WithLabelValues("rejected").Inc()
	s.metrics.BookingRejections.WithLabelValues(string(kind)).Inc()
}

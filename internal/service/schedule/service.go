// Package schedule owns availability windows and the slots derived from
// them. Windows are doctor-declared date plus time ranges; slots exist
// only as projections of a window.
package schedule

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
	"github.com/clinicore/clinic-api/pkg/metrics"
)

type Service struct {
	windows      repository.ScheduleRepository
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	auditor      *audit.Service
	metrics      *metrics.Metrics
	validate     *validator.Validate
}

func NewService(
	windows repository.ScheduleRepository,
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	auditor *audit.Service,
	m *metrics.Metrics,
) *Service {
	return &Service{
		windows:      windows,
		appointments: appointments,
		doctors:      doctors,
		auditor:      auditor,
		metrics:      m,
		validate:     validator.New(),
	}
}

func (s *Service) CreateWindow(ctx context.Context, actor *model.Actor, req *model.CreateWindowRequest) (*model.AvailabilityWindow, error) {
	if !actor.HasCapability(model.CapabilityManageSchedules) {
		return nil, apperrors.Forbidden("schedule management requires doctor or admin role")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("invalid window request", err)
	}
	if err := s.authorizeDoctorAccess(ctx, actor, req.DoctorID); err != nil {
		return nil, err
	}
	if _, err := s.doctors.Get(ctx, req.DoctorID); err != nil {
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, apperrors.Validation("invalid date, expected YYYY-MM-DD", err)
	}

	now := time.Now()
	window := &model.AvailabilityWindow{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DoctorID:            req.DoctorID,
		Date:                date,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		SlotDurationMinutes: req.SlotDurationMinutes,
		MaxPatientsPerSlot:  req.MaxPatientsPerSlot,
		CreatedBy:           actor.ID,
	}
	if err := validateWindowTimes(window); err != nil {
		return nil, err
	}

	if err := s.windows.Create(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	s.metrics.WindowsCreated.Inc()
	s.auditor.Log(ctx, actor.ID, "window.create", "availability_window", window.ID, window)
	return window, nil
}

func (s *Service) GetWindow(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.AvailabilityWindow, error) {
	if !actor.HasCapability(model.CapabilityViewSchedules) {
		return nil, apperrors.Forbidden("schedule access denied")
	}
	return s.windows.Get(ctx, id)
}

// UpdateWindow merges the patch onto the stored window and re-validates
// the result. Edits that would strand a live appointment, either by
// dropping its ordinal or by shrinking a slot below its occupancy, are
// refused with the affected appointment ids.
func (s *Service) UpdateWindow(ctx context.Context, actor *model.Actor, id uuid.UUID, req *model.UpdateWindowRequest) (*model.AvailabilityWindow, error) {
	if !actor.HasCapability(model.CapabilityManageSchedules) {
		return nil, apperrors.Forbidden("schedule management requires doctor or admin role")
	}

	window, err := s.windows.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeDoctorAccess(ctx, actor, window.DoctorID); err != nil {
		return nil, err
	}

	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, apperrors.Validation("invalid date, expected YYYY-MM-DD", err)
		}
		window.Date = date
	}
	if req.StartTime != nil {
		window.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		window.EndTime = *req.EndTime
	}
	if req.SlotDurationMinutes != nil {
		window.SlotDurationMinutes = *req.SlotDurationMinutes
	}
	if req.MaxPatientsPerSlot != nil {
		window.MaxPatientsPerSlot = *req.MaxPatientsPerSlot
	}
	if err := validateWindowTimes(window); err != nil {
		return nil, err
	}

	if affected, err := s.strandedAppointments(ctx, window); err != nil {
		return nil, err
	} else if len(affected) > 0 {
		return nil, apperrors.Conflict("edit would strand live appointments", affected)
	}

	if err := s.windows.Update(ctx, window); err != nil {
		return nil, fmt.Errorf("failed to update window: %w", err)
	}

	s.auditor.Log(ctx, actor.ID, "window.update", "availability_window", window.ID, req)
	return window, nil
}

// DeleteWindow removes a window that has no live appointments. Windows
// with scheduled or completed bookings are refused with the appointment
// ids, matching the update policy.
func (s *Service) DeleteWindow(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	if !actor.HasCapability(model.CapabilityManageSchedules) {
		return apperrors.Forbidden("schedule management requires doctor or admin role")
	}

	window, err := s.windows.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeDoctorAccess(ctx, actor, window.DoctorID); err != nil {
		return err
	}

	live, err := s.appointments.ListLiveByWindow(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check window occupancy: %w", err)
	}
	if len(live) > 0 {
		ids := make([]uuid.UUID, 0, len(live))
		for _, a := range live {
			ids = append(ids, a.ID)
		}
		return apperrors.Conflict("window has live appointments", ids)
	}

	if err := s.windows.Delete(ctx, id); err != nil {
		return err
	}

	s.metrics.WindowsDeleted.Inc()
	s.auditor.Log(ctx, actor.ID, "window.delete", "availability_window", id, nil)
	return nil
}

func (s *Service) ListWindows(ctx context.Context, actor *model.Actor, doctorID uuid.UUID) ([]*model.AvailabilityWindow, error) {
	if !actor.HasCapability(model.CapabilityViewSchedules) {
		return nil, apperrors.Forbidden("schedule access denied")
	}
	return s.windows.ListByDoctor(ctx, doctorID)
}

// ListOwnWindows resolves the acting doctor's profile and returns their
// windows, so doctors never need to know their own profile id.
func (s *Service) ListOwnWindows(ctx context.Context, actor *model.Actor) ([]*model.AvailabilityWindow, error) {
	doctor, err := s.doctors.GetByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.Forbidden("no doctor profile for actor")
	}
	return s.windows.ListByDoctor(ctx, doctor.ID)
}

// ListSlots projects a window into its slots with live occupancy, so
// clients can show remaining capacity without a separate count call.
func (s *Service) ListSlots(ctx context.Context, actor *model.Actor, windowID uuid.UUID) ([]*model.SlotAvailability, error) {
	if !actor.HasCapability(model.CapabilityViewSchedules) {
		return nil, apperrors.Forbidden("schedule access denied")
	}

	window, err := s.windows.Get(ctx, windowID)
	if err != nil {
		return nil, err
	}
	live, err := s.appointments.ListLiveByWindow(ctx, windowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load window occupancy: %w", err)
	}

	occupancy := make(map[int]int)
	for _, a := range live {
		occupancy[a.SlotOrdinal]++
	}

	slots := GenerateSlots(window)
	out := make([]*model.SlotAvailability, 0, len(slots))
	for _, slot := range slots {
		out = append(out, &model.SlotAvailability{
			Slot:        slot,
			BookedCount: occupancy[slot.Ordinal],
			Capacity:    window.MaxPatientsPerSlot,
		})
	}
	return out, nil
}

// strandedAppointments returns the live appointments the edited window
// could no longer seat.
func (s *Service) strandedAppointments(ctx context.Context, window *model.AvailabilityWindow) ([]uuid.UUID, error) {
	live, err := s.appointments.ListLiveByWindow(ctx, window.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check window occupancy: %w", err)
	}

	slotCount := window.SlotCount()
	occupancy := make(map[int][]uuid.UUID)
	for _, a := range live {
		occupancy[a.SlotOrdinal] = append(occupancy[a.SlotOrdinal], a.ID)
	}

	var affected []uuid.UUID
	for ordinal, ids := range occupancy {
		if ordinal >= slotCount || len(ids) > window.MaxPatientsPerSlot {
			affected = append(affected, ids...)
		}
	}
	return affected, nil
}

// authorizeDoctorAccess allows admins through and requires doctor actors
// to operate on their own doctor record.
func (s *Service) authorizeDoctorAccess(ctx context.Context, actor *model.Actor, doctorID uuid.UUID) error {
	if actor.HasRole(model.RoleAdmin) {
		return nil
	}
	doctor, err := s.doctors.GetByUser(ctx, actor.ID)
	if err != nil {
		return apperrors.Forbidden("no doctor profile for actor")
	}
	if doctor.ID != doctorID {
		return apperrors.Forbidden("doctors may only manage their own schedule")
	}
	return nil
}

func validateWindowTimes(w *model.AvailabilityWindow) error {
	start, err := model.MinuteOfDay(w.StartTime)
	if err != nil {
		return apperrors.Validation("invalid start_time, expected HH:MM", err)
	}
	end, err := model.MinuteOfDay(w.EndTime)
	if err != nil {
		return apperrors.Validation("invalid end_time, expected HH:MM", err)
	}
	if end <= start {
		return apperrors.Validation("start_time must be before end_time", nil)
	}
	if w.SlotDurationMinutes <= 0 {
		return apperrors.Validation("slot_duration_minutes must be positive", nil)
	}
	if w.MaxPatientsPerSlot < 1 {
		return apperrors.Validation("max_patients_per_slot must be at least 1", nil)
	}
	return nil
}

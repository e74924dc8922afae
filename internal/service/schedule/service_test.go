package schedule

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository/memory"
	"github.com/clinicore/clinic-api/internal/service/audit"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/logger"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

type fixture struct {
	svc         *Service
	store       *memory.Store
	doctor      *model.Doctor
	doctorActor *model.Actor
	adminActor  *model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	auditor := audit.NewService(store.Audits(), log)
	m := metrics.NewMetrics("test", prometheus.NewRegistry())

	doctorUser := uuid.New()
	doctor := &model.Doctor{
		Base:           model.Base{ID: uuid.New()},
		UserID:         doctorUser,
		Name:           "Dr. Osei",
		Specialization: "Cardiology",
		Email:          "osei@clinic.test",
	}
	require.NoError(t, store.Doctors().Create(context.Background(), doctor))

	return &fixture{
		svc:         NewService(store.Schedules(), store.Appointments(), store.Doctors(), auditor, m),
		store:       store,
		doctor:      doctor,
		doctorActor: &model.Actor{ID: doctorUser, Roles: []model.Role{model.RoleDoctor}},
		adminActor:  &model.Actor{ID: uuid.New(), Roles: []model.Role{model.RoleAdmin}},
	}
}

func (f *fixture) createRequest() *model.CreateWindowRequest {
	return &model.CreateWindowRequest{
		DoctorID:            f.doctor.ID,
		Date:                "2026-09-15",
		StartTime:           "09:00",
		EndTime:             "12:00",
		SlotDurationMinutes: 30,
		MaxPatientsPerSlot:  2,
	}
}

func (f *fixture) bookSlot(t *testing.T, windowID uuid.UUID, ordinal int, status model.AppointmentStatus) *model.Appointment {
	t.Helper()
	now := time.Now()
	a := &model.Appointment{
		Base:        model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PatientID:   uuid.New(),
		DoctorID:    f.doctor.ID,
		WindowID:    windowID,
		SlotOrdinal: ordinal,
		Status:      status,
	}
	require.NoError(t, f.store.Appointments().Create(context.Background(), a))
	return a
}

func TestCreateWindow(t *testing.T) {
	f := newFixture(t)

	w, err := f.svc.CreateWindow(context.Background(), f.doctorActor, f.createRequest())
	require.NoError(t, err)
	assert.Equal(t, f.doctor.ID, w.DoctorID)
	assert.Equal(t, 6, w.SlotCount())
	assert.Equal(t, f.doctorActor.ID, w.CreatedBy)
}

func TestCreateWindowValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*model.CreateWindowRequest)
	}{
		{"inverted times", func(r *model.CreateWindowRequest) { r.StartTime, r.EndTime = r.EndTime, r.StartTime }},
		{"equal times", func(r *model.CreateWindowRequest) { r.EndTime = r.StartTime }},
		{"zero duration", func(r *model.CreateWindowRequest) { r.SlotDurationMinutes = 0 }},
		{"zero capacity", func(r *model.CreateWindowRequest) { r.MaxPatientsPerSlot = 0 }},
		{"bad date", func(r *model.CreateWindowRequest) { r.Date = "15/09/2026" }},
		{"bad clock", func(r *model.CreateWindowRequest) { r.StartTime = "9am" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.createRequest()
			tt.mutate(req)
			_, err := f.svc.CreateWindow(context.Background(), f.doctorActor, req)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "got %v", err)
		})
	}
}

func TestCreateWindowAuthorization(t *testing.T) {
	f := newFixture(t)

	patient := &model.Actor{ID: uuid.New(), Roles: []model.Role{model.RolePatient}}
	_, err := f.svc.CreateWindow(context.Background(), patient, f.createRequest())
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	otherDoctor := &model.Actor{ID: uuid.New(), Roles: []model.Role{model.RoleDoctor}}
	_, err = f.svc.CreateWindow(context.Background(), otherDoctor, f.createRequest())
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = f.svc.CreateWindow(context.Background(), f.adminActor, f.createRequest())
	assert.NoError(t, err)
}

func TestCreateWindowUnknownDoctor(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest()
	req.DoctorID = uuid.New()
	_, err := f.svc.CreateWindow(context.Background(), f.adminActor, req)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestUpdateWindowMergesAndRevalidates(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.CreateWindow(context.Background(), f.doctorActor, f.createRequest())
	require.NoError(t, err)

	newEnd := "10:00"
	updated, err := f.svc.UpdateWindow(context.Background(), f.doctorActor, w.ID, &model.UpdateWindowRequest{EndTime: &newEnd})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.SlotCount())

	bad := "08:00"
	_, err = f.svc.UpdateWindow(context.Background(), f.doctorActor, w.ID, &model.UpdateWindowRequest{EndTime: &bad})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestUpdateWindowRefusesToStrandLiveAppointments(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.CreateWindow(context.Background(), f.doctorActor, f.createRequest())
	require.NoError(t, err)

	// Ordinal 5 is the last of six slots.
	booked := f.bookSlot(t, w.ID, 5, model.AppointmentStatusScheduled)

	newEnd := "10:00"
	_, err = f.svc.UpdateWindow(context.Background(), f.doctorActor, w.ID, &model.UpdateWindowRequest{EndTime: &newEnd})
	require.True(t, apperrors.IsKind(err, apperrors.KindConflict), "got %v", err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, booked.ID)
}

func TestUpdateWindowRefusesCapacityBelowOccupancy(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.CreateWindow(context.Background(), f.doctorActor, f.createRequest())
	require.NoError(t, err)

	f.bookSlot(t, w.ID, 0, model.AppointmentStatusScheduled)
	f.bookSlot(t, w.ID, 0, model.AppointmentStatusCompleted)

	one := 1
	_, err = f.svc.UpdateWindow(context.Background(), f.doctorActor, w.ID, &model.UpdateWindowRequest{MaxPatientsPerSlot: &one})
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "got %v", err)
}

func TestUpdateWindowAllowsEditWhenOnlyCancelledBookings(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.CreateWindow(context.Background(), f.doctorActor, f.createRequest())
	require.NoError(t, err)

	f.bookSlot(t, w.ID, 5, model.AppointmentStatusCancelled)

	newEnd := "10:00"
	_, err = f.svc.UpdateWindow(context.Background(), f.doctorActor, w.ID, &model.UpdateWindowRequest{EndTime: &newEnd})
	assert.NoError(t, err)
}

func TestDeleteWindow(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.CreateWindow(context.Background(), f.doctorActor, f.createRequest())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteWindow(context.Background(), f.doctorActor, w.ID))

	_, err = f.svc.GetWindow(context.Background(), f.doctorActor, w.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestDeleteWindowRefusedWithLiveAppointments(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.CreateWindow(context.Background(), f.doctorActor, f.createRequest())
	require.NoError(t, err)

	booked := f.bookSlot(t, w.ID, 1, model.AppointmentStatusCompleted)

	err = f.svc.DeleteWindow(context.Background(), f.doctorActor, w.ID)
	require.True(t, apperrors.IsKind(err, apperrors.KindConflict), "got %v", err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, booked.ID)

	// The window survives the refused delete.
	_, err = f.svc.GetWindow(context.Background(), f.doctorActor, w.ID)
	assert.NoError(t, err)
}

func TestDeleteWindowAllowedWhenAllCancelled(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.CreateWindow(context.Background(), f.doctorActor, f.createRequest())
	require.NoError(t, err)

	f.bookSlot(t, w.ID, 1, model.AppointmentStatusCancelled)
	assert.NoError(t, f.svc.DeleteWindow(context.Background(), f.doctorActor, w.ID))
}

func TestListSlotsReportsOccupancy(t *testing.T) {
	f := newFixture(t)
	w, err := f.svc.CreateWindow(context.Background(), f.doctorActor, f.createRequest())
	require.NoError(t, err)

	f.bookSlot(t, w.ID, 0, model.AppointmentStatusScheduled)
	f.bookSlot(t, w.ID, 0, model.AppointmentStatusCompleted)
	f.bookSlot(t, w.ID, 2, model.AppointmentStatusCancelled)

	slots, err := f.svc.ListSlots(context.Background(), f.doctorActor, w.ID)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	assert.Equal(t, 2, slots[0].BookedCount)
	assert.Equal(t, 2, slots[0].Capacity)
	// Cancelled bookings release their seat.
	assert.Equal(t, 0, slots[2].BookedCount)
}

func TestListWindowsSortedByDate(t *testing.T) {
	f := newFixture(t)

	later := f.createRequest()
	later.Date = "2026-09-20"
	_, err := f.svc.CreateWindow(context.Background(), f.doctorActor, later)
	require.NoError(t, err)

	earlier := f.createRequest()
	earlier.Date = "2026-09-10"
	_, err = f.svc.CreateWindow(context.Background(), f.doctorActor, earlier)
	require.NoError(t, err)

	windows, err := f.svc.ListWindows(context.Background(), f.doctorActor, f.doctor.ID)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.True(t, windows[0].Date.Before(windows[1].Date))
}

func TestListOwnWindows(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateWindow(context.Background(), f.doctorActor, f.createRequest())
	require.NoError(t, err)

	// Another doctor's window stays out of the listing.
	otherUser := uuid.New()
	other := &model.Doctor{
		Base:   model.Base{ID: uuid.New()},
		UserID: otherUser,
		Name:   "Dr. Varga",
		Email:  "varga@clinic.test",
	}
	require.NoError(t, f.store.Doctors().Create(context.Background(), other))
	otherReq := f.createRequest()
	otherReq.DoctorID = other.ID
	otherActor := &model.Actor{ID: otherUser, Roles: []model.Role{model.RoleDoctor}}
	_, err = f.svc.CreateWindow(context.Background(), otherActor, otherReq)
	require.NoError(t, err)

	windows, err := f.svc.ListOwnWindows(context.Background(), f.doctorActor)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, f.doctor.ID, windows[0].DoctorID)

	// An actor without a doctor profile has no own schedule.
	_, err = f.svc.ListOwnWindows(context.Background(), f.adminActor)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

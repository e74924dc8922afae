package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository/memory"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type fixture struct {
	svc   *Service
	store *memory.Store

	doctor       *model.Doctor
	doctorActor  *model.Actor
	patient      *model.Patient
	patientActor *model.Actor
	adminActor   *model.Actor
}

var testNow = time.Date(2026, 9, 15, 14, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()

	doctorUser, patientUser := uuid.New(), uuid.New()
	doctor := &model.Doctor{Base: model.Base{ID: uuid.New()}, UserID: doctorUser, Name: "Dr. A", Email: "a@clinic.test"}
	patient := &model.Patient{Base: model.Base{ID: uuid.New()}, UserID: patientUser, Name: "P", Email: "p@clinic.test"}
	require.NoError(t, store.Doctors().Create(context.Background(), doctor))
	require.NoError(t, store.Patients().Create(context.Background(), patient))

	svc := NewService(store.Appointments(), store.Doctors(), store.Patients())
	svc.now = func() time.Time { return testNow }

	return &fixture{
		svc:          svc,
		store:        store,
		doctor:       doctor,
		doctorActor:  &model.Actor{ID: doctorUser, Roles: []model.Role{model.RoleDoctor}},
		patient:      patient,
		patientActor: &model.Actor{ID: patientUser, Roles: []model.Role{model.RolePatient}},
		adminActor:   &model.Actor{ID: uuid.New(), Roles: []model.Role{model.RoleAdmin}},
	}
}

// addAppointment stores a window on the given date plus one appointment
// in it for the fixture's doctor.
func (f *fixture) addAppointment(t *testing.T, patientID uuid.UUID, date time.Time, status model.AppointmentStatus) {
	t.Helper()
	w := &model.AvailabilityWindow{
		Base:                model.Base{ID: uuid.New()},
		DoctorID:            f.doctor.ID,
		Date:                date,
		StartTime:           "09:00",
		EndTime:             "10:00",
		SlotDurationMinutes: 30,
		MaxPatientsPerSlot:  1,
	}
	require.NoError(t, f.store.Schedules().Create(context.Background(), w))

	now := time.Now()
	a := &model.Appointment{
		Base:        model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PatientID:   patientID,
		DoctorID:    f.doctor.ID,
		WindowID:    w.ID,
		SlotOrdinal: 0,
		Status:      status,
	}
	require.NoError(t, f.store.Appointments().Create(context.Background(), a))
}

func day(offset int) time.Time {
	return time.Date(2026, 9, 15+offset, 0, 0, 0, 0, time.UTC)
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)

	f.addAppointment(t, f.patient.ID, day(0), model.AppointmentStatusScheduled)  // today
	f.addAppointment(t, f.patient.ID, day(2), model.AppointmentStatusScheduled)  // upcoming
	f.addAppointment(t, f.patient.ID, day(-3), model.AppointmentStatusCompleted) // past, completed
	f.addAppointment(t, f.patient.ID, day(1), model.AppointmentStatusCancelled)  // cancelled, never counted as upcoming
	f.addAppointment(t, f.patient.ID, day(-1), model.AppointmentStatusScheduled) // past, still scheduled

	stats, err := f.svc.DashboardStats(context.Background(), f.adminActor)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TodayCount)
	assert.Equal(t, 1, stats.UpcomingCount) // strictly after today, still scheduled
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 5, stats.TotalCount)
}

// A doctor with one visit today, one tomorrow, and one completed
// yesterday sees exactly one of each bucket.
func TestDashboardStatsDoctorWeek(t *testing.T) {
	f := newFixture(t)

	f.addAppointment(t, f.patient.ID, day(0), model.AppointmentStatusScheduled)
	f.addAppointment(t, f.patient.ID, day(1), model.AppointmentStatusScheduled)
	f.addAppointment(t, f.patient.ID, day(-1), model.AppointmentStatusCompleted)

	stats, err := f.svc.DashboardStats(context.Background(), f.doctorActor)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TodayCount)
	assert.Equal(t, 1, stats.UpcomingCount)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 3, stats.TotalCount)
}

// Today is a date match only; a visit completed earlier today still
// belongs to today's count.
func TestDashboardStatsTodayIgnoresStatus(t *testing.T) {
	f := newFixture(t)

	f.addAppointment(t, f.patient.ID, day(0), model.AppointmentStatusCompleted)
	f.addAppointment(t, f.patient.ID, day(0), model.AppointmentStatusCancelled)

	stats, err := f.svc.DashboardStats(context.Background(), f.patientActor)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TodayCount)
	assert.Equal(t, 0, stats.UpcomingCount)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 2, stats.TotalCount)
}

func TestDashboardStatsRoleScoped(t *testing.T) {
	f := newFixture(t)

	otherPatient := &model.Patient{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), Name: "Q", Email: "q@clinic.test"}
	require.NoError(t, f.store.Patients().Create(context.Background(), otherPatient))

	f.addAppointment(t, f.patient.ID, day(0), model.AppointmentStatusScheduled)
	f.addAppointment(t, otherPatient.ID, day(0), model.AppointmentStatusScheduled)

	patientStats, err := f.svc.DashboardStats(context.Background(), f.patientActor)
	require.NoError(t, err)
	assert.Equal(t, 1, patientStats.TotalCount)

	doctorStats, err := f.svc.DashboardStats(context.Background(), f.doctorActor)
	require.NoError(t, err)
	assert.Equal(t, 2, doctorStats.TotalCount)

	adminStats, err := f.svc.DashboardStats(context.Background(), f.adminActor)
	require.NoError(t, err)
	assert.Equal(t, 2, adminStats.TotalCount)
}

func TestDashboardStatsDateBoundary(t *testing.T) {
	f := newFixture(t)

	// 23:59 today is still today; 00:00 tomorrow is upcoming only.
	f.addAppointment(t, f.patient.ID, day(0), model.AppointmentStatusScheduled)
	f.addAppointment(t, f.patient.ID, day(1), model.AppointmentStatusScheduled)

	stats, err := f.svc.DashboardStats(context.Background(), f.patientActor)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TodayCount)
	assert.Equal(t, 1, stats.UpcomingCount)
}

func TestDashboardStatsNoProfile(t *testing.T) {
	f := newFixture(t)

	orphan := &model.Actor{ID: uuid.New(), Roles: []model.Role{model.RolePatient}}
	_, err := f.svc.DashboardStats(context.Background(), orphan)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

package prescription

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository/memory"
	"github.com/clinicore/clinic-api/internal/service/audit"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/logger"
)

type fixture struct {
	svc   *Service
	store *memory.Store

	doctor       *model.Doctor
	doctorActor  *model.Actor
	patient      *model.Patient
	patientActor *model.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	auditor := audit.NewService(store.Audits(), log)

	doctorUser, patientUser := uuid.New(), uuid.New()
	doctor := &model.Doctor{Base: model.Base{ID: uuid.New()}, UserID: doctorUser, Name: "Dr. B", Email: "b@clinic.test"}
	patient := &model.Patient{Base: model.Base{ID: uuid.New()}, UserID: patientUser, Name: "P", Email: "p@clinic.test"}
	require.NoError(t, store.Doctors().Create(context.Background(), doctor))
	require.NoError(t, store.Patients().Create(context.Background(), patient))

	return &fixture{
		svc:          NewService(store.Prescriptions(), store.Appointments(), store.Doctors(), store.Patients(), auditor),
		store:        store,
		doctor:       doctor,
		doctorActor:  &model.Actor{ID: doctorUser, Roles: []model.Role{model.RoleDoctor}},
		patient:      patient,
		patientActor: &model.Actor{ID: patientUser, Roles: []model.Role{model.RolePatient}},
	}
}

func (f *fixture) addAppointment(t *testing.T, status model.AppointmentStatus) *model.Appointment {
	t.Helper()
	now := time.Now()
	a := &model.Appointment{
		Base:        model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PatientID:   f.patient.ID,
		DoctorID:    f.doctor.ID,
		WindowID:    uuid.New(),
		SlotOrdinal: 0,
		Status:      status,
	}
	require.NoError(t, f.store.Appointments().Create(context.Background(), a))
	return a
}

func createReq(appointmentID uuid.UUID) *model.CreatePrescriptionRequest {
	return &model.CreatePrescriptionRequest{
		AppointmentID: appointmentID,
		Diagnosis:     "seasonal allergy",
		Medications: []model.MedicationRequest{
			{MedicineName: "Cetirizine", Dosage: "10mg", Frequency: "daily", Duration: "14 days"},
		},
	}
}

func TestCreatePrescription(t *testing.T) {
	f := newFixture(t)
	a := f.addAppointment(t, model.AppointmentStatusCompleted)

	p, err := f.svc.Create(context.Background(), f.doctorActor, createReq(a.ID))
	require.NoError(t, err)
	assert.Equal(t, a.ID, p.AppointmentID)
	require.Len(t, p.Medications, 1)
	assert.Equal(t, "Cetirizine", p.Medications[0].MedicineName)
}

func TestCreateRequiresCompletedAppointment(t *testing.T) {
	f := newFixture(t)

	scheduled := f.addAppointment(t, model.AppointmentStatusScheduled)
	_, err := f.svc.Create(context.Background(), f.doctorActor, createReq(scheduled.ID))
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "got %v", err)

	cancelled := f.addAppointment(t, model.AppointmentStatusCancelled)
	_, err = f.svc.Create(context.Background(), f.doctorActor, createReq(cancelled.ID))
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "got %v", err)
}

func TestCreateRequiresOwningDoctor(t *testing.T) {
	f := newFixture(t)
	a := f.addAppointment(t, model.AppointmentStatusCompleted)

	otherDoctor := &model.Doctor{Base: model.Base{ID: uuid.New()}, UserID: uuid.New(), Name: "Dr. C", Email: "c@clinic.test"}
	require.NoError(t, f.store.Doctors().Create(context.Background(), otherDoctor))
	otherActor := &model.Actor{ID: otherDoctor.UserID, Roles: []model.Role{model.RoleDoctor}}

	_, err := f.svc.Create(context.Background(), otherActor, createReq(a.ID))
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = f.svc.Create(context.Background(), f.patientActor, createReq(a.ID))
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestCreateRejectsSecondPrescription(t *testing.T) {
	f := newFixture(t)
	a := f.addAppointment(t, model.AppointmentStatusCompleted)

	_, err := f.svc.Create(context.Background(), f.doctorActor, createReq(a.ID))
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), f.doctorActor, createReq(a.ID))
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestGetByAppointmentAuthorization(t *testing.T) {
	f := newFixture(t)
	a := f.addAppointment(t, model.AppointmentStatusCompleted)
	_, err := f.svc.Create(context.Background(), f.doctorActor, createReq(a.ID))
	require.NoError(t, err)

	_, err = f.svc.GetByAppointment(context.Background(), f.patientActor, a.ID)
	assert.NoError(t, err)

	stranger := &model.Actor{ID: uuid.New(), Roles: []model.Role{model.RolePatient}}
	_, err = f.svc.GetByAppointment(context.Background(), stranger, a.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestListOwn(t *testing.T) {
	f := newFixture(t)
	a := f.addAppointment(t, model.AppointmentStatusCompleted)
	_, err := f.svc.Create(context.Background(), f.doctorActor, createReq(a.ID))
	require.NoError(t, err)

	forPatient, err := f.svc.ListOwn(context.Background(), f.patientActor)
	require.NoError(t, err)
	assert.Len(t, forPatient, 1)

	forDoctor, err := f.svc.ListOwn(context.Background(), f.doctorActor)
	require.NoError(t, err)
	assert.Len(t, forDoctor, 1)
}

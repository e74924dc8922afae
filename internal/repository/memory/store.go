// Package memory provides mutex-guarded in-memory implementations of the
// repository interfaces. They back the unit tests and the local
// development mode; the postgres package is the production store.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
)

// Store holds every collection behind a single lock. The typed accessors
// return views that satisfy the corresponding repository interfaces while
// sharing one dataset, so cross-collection reads (e.g. appointment
// details joined with window dates) stay consistent.
type Store struct {
	mu            sync.RWMutex
	windows       map[uuid.UUID]*model.AvailabilityWindow
	appointments  map[uuid.UUID]*model.Appointment
	doctors       map[uuid.UUID]*model.Doctor
	patients      map[uuid.UUID]*model.Patient
	users         map[uuid.UUID]*model.User
	prescriptions map[uuid.UUID]*model.Prescription
	auditLogs     []*model.AuditLog
}

func NewStore() *Store {
	return &Store{
		windows:       make(map[uuid.UUID]*model.AvailabilityWindow),
		appointments:  make(map[uuid.UUID]*model.Appointment),
		doctors:       make(map[uuid.UUID]*model.Doctor),
		patients:      make(map[uuid.UUID]*model.Patient),
		users:         make(map[uuid.UUID]*model.User),
		prescriptions: make(map[uuid.UUID]*model.Prescription),
	}
}

func (s *Store) Schedules() *ScheduleRepo         { return &ScheduleRepo{store: s} }
func (s *Store) Appointments() *AppointmentRepo   { return &AppointmentRepo{store: s} }
func (s *Store) Doctors() *DoctorRepo             { return &DoctorRepo{store: s} }
func (s *Store) Patients() *PatientRepo           { return &PatientRepo{store: s} }
func (s *Store) Users() *UserRepo                 { return &UserRepo{store: s} }
func (s *Store) Prescriptions() *PrescriptionRepo { return &PrescriptionRepo{store: s} }
func (s *Store) Audits() *AuditRepo               { return &AuditRepo{store: s} }

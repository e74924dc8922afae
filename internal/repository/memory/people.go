package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

// DoctorRepo implements repository.DoctorRepository over the shared store.
type DoctorRepo struct {
	store *Store
}

func (r *DoctorRepo) Create(ctx context.Context, doctor *model.Doctor) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *doctor
	r.store.doctors[doctor.ID] = &cp
	return nil
}

func (r *DoctorRepo) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	d, ok := r.store.doctors[id]
	if !ok {
		return nil, apperrors.NotFound("doctor")
	}
	cp := *d
	return &cp, nil
}

func (r *DoctorRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, d := range r.store.doctors {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("doctor")
}

func (r *DoctorRepo) Update(ctx context.Context, doctor *model.Doctor) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.doctors[doctor.ID]; !ok {
		return apperrors.NotFound("doctor")
	}
	doctor.UpdatedAt = time.Now()
	cp := *doctor
	r.store.doctors[doctor.ID] = &cp
	return nil
}

func (r *DoctorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.doctors[id]; !ok {
		return apperrors.NotFound("doctor")
	}
	delete(r.store.doctors, id)
	return nil
}

func (r *DoctorRepo) List(ctx context.Context) ([]*model.Doctor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var doctors []*model.Doctor
	for _, d := range r.store.doctors {
		cp := *d
		doctors = append(doctors, &cp)
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].Name < doctors[j].Name })
	return doctors, nil
}

// PatientRepo implements repository.PatientRepository over the shared store.
type PatientRepo struct {
	store *Store
}

func (r *PatientRepo) Create(ctx context.Context, patient *model.Patient) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *patient
	r.store.patients[patient.ID] = &cp
	return nil
}

func (r *PatientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient")
	}
	cp := *p
	return &cp, nil
}

func (r *PatientRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, p := range r.store.patients {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("patient")
}

func (r *PatientRepo) Update(ctx context.Context, patient *model.Patient) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.patients[patient.ID]; !ok {
		return apperrors.NotFound("patient")
	}
	patient.UpdatedAt = time.Now()
	cp := *patient
	r.store.patients[patient.ID] = &cp
	return nil
}

func (r *PatientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.patients[id]; !ok {
		return apperrors.NotFound("patient")
	}
	delete(r.store.patients, id)
	return nil
}

func (r *PatientRepo) List(ctx context.Context) ([]*model.Patient, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var patients []*model.Patient
	for _, p := range r.store.patients {
		cp := *p
		patients = append(patients, &cp)
	}
	sort.Slice(patients, func(i, j int) bool { return patients[i].Name < patients[j].Name })
	return patients, nil
}

// UserRepo implements repository.UserRepository over the shared store.
type UserRepo struct {
	store *Store
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, u := range r.store.users {
		if u.Email == user.Email {
			return apperrors.Conflict("email already registered", nil)
		}
	}
	cp := *user
	r.store.users[user.ID] = &cp
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

// Package doctor manages doctor profiles. The directory listing is
// read-heavy and served from a short-lived cache; every mutation drops
// the cached listing.
package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/internal/service/audit"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

const directoryCacheKey = "doctor_directory"

type Service struct {
	doctors  repository.DoctorRepository
	auditor  *audit.Service
	cache    *gocache.Cache
	validate *validator.Validate
}

func NewService(doctors repository.DoctorRepository, auditor *audit.Service) *Service {
	return &Service{
		doctors:  doctors,
		auditor:  auditor,
		cache:    gocache.New(30*time.Second, time.Minute),
		validate: validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, actor *model.Actor, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if !actor.HasCapability(model.CapabilityManageDoctors) {
		return nil, apperrors.Forbidden("doctor management requires admin role")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("invalid doctor request", err)
	}

	now := time.Now()
	doctor := &model.Doctor{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:         req.UserID,
		Name:           req.Name,
		Specialization: req.Specialization,
		Email:          req.Email,
		Phone:          req.Phone,
	}
	if err := s.doctors.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}

	s.cache.Delete(directoryCacheKey)
	s.auditor.Log(ctx, actor.ID, "doctor.create", "doctor", doctor.ID, doctor)
	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.doctors.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.doctors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeDoctorUpdate(ctx, actor, doctor); err != nil {
		return nil, err
	}

	if req.Name != nil {
		doctor.Name = *req.Name
	}
	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.Email != nil {
		doctor.Email = *req.Email
	}
	if req.Phone != nil {
		doctor.Phone = *req.Phone
	}
	if err := s.validate.Var(doctor.Email, "required,email"); err != nil {
		return nil, apperrors.Validation("invalid email", err)
	}

	if err := s.doctors.Update(ctx, doctor); err != nil {
		return nil, err
	}

	s.cache.Delete(directoryCacheKey)
	s.auditor.Log(ctx, actor.ID, "doctor.update", "doctor", doctor.ID, req)
	return doctor, nil
}

func (s *Service) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	if !actor.HasCapability(model.CapabilityManageDoctors) {
		return apperrors.Forbidden("doctor management requires admin role")
	}
	if err := s.doctors.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(directoryCacheKey)
	s.auditor.Log(ctx, actor.ID, "doctor.delete", "doctor", id, nil)
	return nil
}

// List serves the doctor directory, cached briefly because it backs the
// booking UI's doctor picker.
func (s *Service) List(ctx context.Context) ([]*model.Doctor, error) {
	if cached, ok := s.cache.Get(directoryCacheKey); ok {
		return cached.([]*model.Doctor), nil
	}

	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	s.cache.Set(directoryCacheKey, doctors, gocache.DefaultExpiration)
	return doctors, nil
}

// authorizeDoctorUpdate allows admins, and doctors editing their own
// profile.
func (s *Service) authorizeDoctorUpdate(ctx context.Context, actor *model.Actor, doctor *model.Doctor) error {
	if actor.HasCapability(model.CapabilityManageDoctors) {
		return nil
	}
	if actor.HasRole(model.RoleDoctor) && doctor.UserID == actor.ID {
		return nil
	}
	return apperrors.Forbidden("cannot modify another doctor's profile")
}

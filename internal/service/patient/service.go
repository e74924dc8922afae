// Package patient manages patient profiles.
package patient

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
	patients repository.PatientRepository
	auditor  *audit.Service
	validate *validator.Validate
}

func NewService(patients repository.PatientRepository, auditor *audit.Service) *Service {
	return &Service{
		patients: patients,
		auditor:  auditor,
		validate: validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, actor *model.Actor, req *model.CreatePatientRequest) (*model.Patient, error) {
	if !actor.HasCapability(model.CapabilityManagePatients) && req.UserID != actor.ID {
		return nil, apperrors.Forbidden("cannot create a profile for another user")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("invalid patient request", err)
	}

	now := time.Now()
	patient := &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:  req.UserID,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, apperrors.Validation("invalid date_of_birth, expected YYYY-MM-DD", err)
		}
		patient.DateOfBirth = &dob
	}

	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.auditor.Log(ctx, actor.ID, "patient.create", "patient", patient.ID, patient)
	return patient, nil
}

func (s *Service) Get(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePatientAccess(actor, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) GetOwn(ctx context.Context, actor *model.Actor) (*model.Patient, error) {
	return s.patients.GetByUser(ctx, actor.ID)
}

func (s *Service) Update(ctx context.Context, actor *model.Actor, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizePatientAccess(actor, patient); err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if err := s.validate.Var(patient.Email, "required,email"); err != nil {
		return nil, apperrors.Validation("invalid email", err)
	}

	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor.ID, "patient.update", "patient", patient.ID, req)
	return patient, nil
}

func (s *Service) Delete(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	if !actor.HasCapability(model.CapabilityManagePatients) {
		return apperrors.Forbidden("patient management requires doctor or admin role")
	}
	if err := s.patients.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Log(ctx, actor.ID, "patient.delete", "patient", id, nil)
	return nil
}

func (s *Service) List(ctx context.Context, actor *model.Actor) ([]*model.Patient, error) {
	if !actor.HasCapability(model.CapabilityManagePatients) {
		return nil, apperrors.Forbidden("patient listing requires doctor or admin role")
	}
	return s.patients.List(ctx)
}

// authorizePatientAccess allows staff, and patients reading or editing
// their own profile.
func (s *Service) authorizePatientAccess(actor *model.Actor, patient *model.Patient) error {
	if actor.HasCapability(model.CapabilityManagePatients) {
		return nil
	}
	if patient.UserID == actor.ID {
		return nil
	}
	return apperrors.Forbidden("cannot access another patient's profile")
}

package model

import "github.com/google/uuid"

type Doctor struct {
	Base
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Name           string    `db:"name" json:"name"`
	Specialization string    `db:"specialization" json:"specialization"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone,omitempty"`
}

type CreateDoctorRequest struct {
	UserID         uuid.UUID `json:"user_id" validate:"required"`
	Name           string    `json:"name" validate:"required,max=120"`
	Specialization string    `json:"specialization" validate:"required,max=120"`
	Email          string    `json:"email" validate:"required,email"`
	Phone          string    `json:"phone" validate:"max=32"`
}

type UpdateDoctorRequest struct {
	Name           *string `json:"name"`
	Specialization *string `json:"specialization"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
}

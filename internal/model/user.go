package model

import (
	"github.com/lib/pq"
)

// User is an authentication record. Roles are stored denormalized on the
// user row; the capability table in actor.go is fixed at build time.
type User struct {
	Base
	Email        string         `db:"email" json:"email"`
	Name         string         `db:"name" json:"name"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Roles        pq.StringArray `db:"roles" json:"roles"`
}

// Actor converts the stored role strings into an Actor, dropping any
// value outside the closed role set.
func (u *User) Actor() *Actor {
	actor := &Actor{ID: u.ID}
	for _, r := range u.Roles {
		role := Role(r)
		if ValidRole(role) {
			actor.Roles = append(actor.Roles, role)
		}
	}
	return actor
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"omitempty,oneof=doctor patient"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Actor       *Actor `json:"actor"`
}

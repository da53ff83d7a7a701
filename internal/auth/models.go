package auth

import (
	"clinic-portal/internal/validation"

	"github.com/google/uuid"
)

// Role tells which side of the portal a user belongs to.
type Role string

const (
	PatientRole Role = "patient"
	DoctorRole  Role = "doctor"
)

type Credentials struct {
	Email    string `json:"email,omitempty" validate:"required"`
	Password string `json:"password,omitempty" validate:"required"`
}

func (c Credentials) Validate() error {
	return validation.Struct(c)
}

// Registration holds the data needed to create a new user. bcrypt refuses passwords longer
// than 72 bytes.
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
	Role     Role   `json:"role" validate:"required,oneof=doctor patient"`
}

func (r Registration) Validate() error {
	return validation.Struct(r)
}

// Tokens is both the answer of a login and the body of a refresh request.
type Tokens struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
	GrantType    string `json:"grant_type,omitempty" validate:"required,eq=refresh_token"`
}

func (t Tokens) Validate() error {
	return validation.Struct(t)
}

// User is a portal account. Password only carries the bcrypt hash on its way to storage.
type User struct {
	ID                int64     `json:"-" dbfield:"id"`
	UUID              uuid.UUID `json:"uuid" dbfield:"uuid"`
	Email             string    `json:"email" dbfield:"email"`
	Password          string    `json:"password,omitempty" dbfield:"password"`
	Role              Role      `json:"role" dbfield:"role"`
	IsProfileComplete bool      `json:"is_profile_complete" dbfield:"is_profile_complete"`
}

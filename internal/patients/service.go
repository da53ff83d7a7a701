// Package patients contains handlers, services and structures used to manage the health
// profile of the patients.
package patients

import (
	"context"
	"fmt"

	"clinic-portal/internal/auth"
	"clinic-portal/internal/database"

	"github.com/google/uuid"
)

// Reader determines the methods available to read the patients.
type Reader interface {

	// FindPatientByUserID finds a patient by the patient's user ID. It returns nil when the
	// user has no patient profile.
	FindPatientByUserID(ctx context.Context, userID int64) (*Patient, error)
}

// Writer determines the methods available to patients to manage their own profile.
type Writer interface {

	// CreateProfile creates the health profile of the authenticated patient.
	CreateProfile(ctx context.Context, user auth.User, profile ProfileRequest) (*Patient, error)

	// GetProfile returns the health profile of the authenticated patient.
	GetProfile(ctx context.Context, user auth.User) (*Patient, error)

	// UpdateProfile replaces the health profile of the authenticated patient.
	UpdateProfile(ctx context.Context, user auth.User, profile ProfileRequest) (*Patient, error)
}

// Service determines the methods used to manage the patients.
type Service interface {
	Reader
	Writer
}

type defaultService struct {
	repository Repository
}

// NewService creates a new patients service.
func NewService(dbConn database.Connection) Service {
	return &defaultService{
		repository: newRepository(dbConn),
	}
}

func (d defaultService) FindPatientByUserID(ctx context.Context, userID int64) (*Patient, error) {
	patient, err := d.repository.FindPatientByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return patient, nil
}

func (d defaultService) CreateProfile(ctx context.Context, user auth.User, profile ProfileRequest) (*Patient, error) {
	if user.Role != auth.PatientRole {
		return nil, newForbiddenError()
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	existing, err := d.FindPatientByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, newProfileAlreadyExistsError()
	}
	patient := &Patient{UUID: uuid.New(), UserID: user.ID}
	profile.apply(patient)
	if err = d.repository.InsertPatient(ctx, patient); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, newProfileAlreadyExistsError()
		}
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return patient, nil
}

func (d defaultService) GetProfile(ctx context.Context, user auth.User) (*Patient, error) {
	if user.Role != auth.PatientRole {
		return nil, newForbiddenError()
	}
	patient, err := d.FindPatientByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, newProfileNotFoundError()
	}
	return patient, nil
}

func (d defaultService) UpdateProfile(ctx context.Context, user auth.User, profile ProfileRequest) (*Patient, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	patient, err := d.GetProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	profile.apply(patient)
	if err = d.repository.UpdatePatient(ctx, *patient); err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return patient, nil
}

// Package doctors contains handlers, services and structures used to manage the doctors
// directory, their professional profile and their weekly availability.
package doctors

import (
	"context"
	"fmt"

	"clinic-portal/internal/auth"
	"clinic-portal/internal/database"
	"clinic-portal/internal/pagination"
	"clinic-portal/internal/schedule"

	"github.com/google/uuid"
)

// Reader determines the methods available to read the doctors directory.
type Reader interface {

	// FindDoctorByUUID finds a doctor and its availability by the doctor UUID. It returns
	// nil when there is no such doctor.
	FindDoctorByUUID(ctx context.Context, doctorUUID uuid.UUID) (*Doctor, error)

	// FindDoctorByUserID finds a doctor and its availability by the doctor's user ID. It
	// returns nil when the user has no doctor profile.
	FindDoctorByUserID(ctx context.Context, userID int64) (*Doctor, error)

	// ListDoctors lists a page of doctors, optionally filtered by speciality.
	ListDoctors(ctx context.Context, speciality string, params pagination.Params) (*DoctorList, error)
}

// Writer determines the methods available to doctors to manage their own profile.
type Writer interface {

	// CreateProfile creates the profile of the authenticated doctor.
	CreateProfile(ctx context.Context, user auth.User, profile ProfileRequest) (*Doctor, error)

	// UpdateProfile updates the professional data of the authenticated doctor.
	UpdateProfile(ctx context.Context, user auth.User, profile ProfileRequest) (*Doctor, error)

	// GetProfile returns the profile of the authenticated doctor.
	GetProfile(ctx context.Context, user auth.User) (*Doctor, error)

	// GetAvailability returns the availability of the authenticated doctor.
	GetAvailability(ctx context.Context, user auth.User) (schedule.Availability, error)

	// UpdateAvailability replaces the weekly template and/or the blocked dates of the
	// authenticated doctor.
	UpdateAvailability(ctx context.Context, user auth.User, request AvailabilityRequest) (schedule.Availability, error)
}

// Service determines the methods used to manage the doctors.
type Service interface {
	Reader
	Writer
}

type defaultService struct {
	repository Repository
}

// NewService creates a new doctors service.
func NewService(dbConn database.Connection) Service {
	return &defaultService{
		repository: newRepository(dbConn),
	}
}

// withAvailability loads the availability of the given doctor, if there is one.
func (d defaultService) withAvailability(ctx context.Context, doctor *Doctor, err error) (*Doctor, error) {
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if doctor == nil {
		return nil, nil
	}
	doctor.Availability, err = d.repository.LoadAvailability(ctx, doctor.ID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return doctor, nil
}

func (d defaultService) FindDoctorByUUID(ctx context.Context, doctorUUID uuid.UUID) (*Doctor, error) {
	doctor, err := d.repository.FindDoctorByUUID(ctx, doctorUUID)
	return d.withAvailability(ctx, doctor, err)
}

func (d defaultService) FindDoctorByUserID(ctx context.Context, userID int64) (*Doctor, error) {
	doctor, err := d.repository.FindDoctorByUserID(ctx, userID)
	return d.withAvailability(ctx, doctor, err)
}

func (d defaultService) ListDoctors(ctx context.Context, speciality string, params pagination.Params) (*DoctorList, error) {
	doctors, total, err := d.repository.ListDoctors(ctx, speciality, params)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return &DoctorList{Doctors: doctors, Pagination: pagination.NewPage(params, total)}, nil
}

// ownProfile returns the profile of the authenticated doctor, failing when there is none.
func (d defaultService) ownProfile(ctx context.Context, user auth.User) (*Doctor, error) {
	if user.Role != auth.DoctorRole {
		return nil, newForbiddenError()
	}
	doctor, err := d.FindDoctorByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, newNotFoundError(ErrProfileNotFound)
	}
	return doctor, nil
}

func (d defaultService) CreateProfile(ctx context.Context, user auth.User, profile ProfileRequest) (*Doctor, error) {
	if user.Role != auth.DoctorRole {
		return nil, newForbiddenError()
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	existing, err := d.repository.FindDoctorByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if existing != nil {
		return nil, newProfileAlreadyExistsError()
	}
	doctor := &Doctor{
		UUID:            uuid.New(),
		UserID:          user.ID,
		Name:            profile.Name,
		Speciality:      profile.Speciality,
		Post:            profile.Post,
		Experience:      profile.Experience,
		Qualifications:  profile.Qualifications,
		ConsultationFee: profile.ConsultationFee,
		ClinicAddress:   profile.ClinicAddress,
		Availability:    schedule.Availability{Days: toDays(profile.AvailableSlots)},
	}
	if err = d.repository.InsertDoctor(ctx, doctor); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, newProfileAlreadyExistsError()
		}
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return doctor, nil
}

func (d defaultService) UpdateProfile(ctx context.Context, user auth.User, profile ProfileRequest) (*Doctor, error) {
	doctor, err := d.ownProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	if err = profile.Validate(); err != nil {
		return nil, err
	}
	doctor.Name = profile.Name
	doctor.Speciality = profile.Speciality
	doctor.Post = profile.Post
	doctor.Experience = profile.Experience
	doctor.Qualifications = profile.Qualifications
	doctor.ConsultationFee = profile.ConsultationFee
	doctor.ClinicAddress = profile.ClinicAddress
	if err = d.repository.UpdateDoctor(ctx, *doctor); err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if profile.AvailableSlots != nil {
		days := toDays(profile.AvailableSlots)
		if err = d.repository.ReplaceAvailability(ctx, doctor.ID, &days, nil); err != nil {
			return nil, fmt.Errorf("an unexpected error occurred: %w", err)
		}
		doctor.Availability.Days = days
	}
	return doctor, nil
}

func (d defaultService) GetProfile(ctx context.Context, user auth.User) (*Doctor, error) {
	return d.ownProfile(ctx, user)
}

func (d defaultService) GetAvailability(ctx context.Context, user auth.User) (schedule.Availability, error) {
	doctor, err := d.ownProfile(ctx, user)
	if err != nil {
		return schedule.Availability{}, err
	}
	return doctor.Availability, nil
}

func (d defaultService) UpdateAvailability(ctx context.Context, user auth.User, request AvailabilityRequest) (schedule.Availability, error) {
	if err := request.Validate(); err != nil {
		return schedule.Availability{}, err
	}
	doctor, err := d.ownProfile(ctx, user)
	if err != nil {
		return schedule.Availability{}, err
	}
	days, blockedDates := request.days(), request.blockedDates()
	if err = d.repository.ReplaceAvailability(ctx, doctor.ID, days, blockedDates); err != nil {
		return schedule.Availability{}, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if days != nil {
		doctor.Availability.Days = *days
	}
	if blockedDates != nil {
		doctor.Availability.BlockedDates = *blockedDates
	}
	return doctor.Availability, nil
}

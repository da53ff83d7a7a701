package doctors

import (
	"time"

	"clinic-portal/internal/apierrors"
	"clinic-portal/internal/pagination"
	"clinic-portal/internal/schedule"
	"clinic-portal/internal/validation"

	"github.com/google/uuid"
)

type Doctor struct {
	ID              int64                 `json:"-" dbfield:"id"`
	UUID            uuid.UUID             `json:"uuid" dbfield:"uuid"`
	UserID          int64                 `json:"-" dbfield:"user_id"`
	Name            string                `json:"name" dbfield:"name"`
	Speciality      string                `json:"speciality" dbfield:"speciality"`
	Post            string                `json:"post" dbfield:"post"`
	Experience      int                   `json:"experience" dbfield:"experience"`
	Qualifications  string                `json:"qualifications" dbfield:"qualifications"`
	ConsultationFee float64               `json:"consultation_fee" dbfield:"consultation_fee"`
	ClinicAddress   string                `json:"clinic_address" dbfield:"clinic_address"`
	Availability    schedule.Availability `json:"availability"`
}

// DaySlots is the template entry of a working day, as sent by the doctor.
type DaySlots struct {
	Day       schedule.DayOfWeek   `json:"day" validate:"required,weekday"`
	TimeSlots []schedule.TimeLabel `json:"time_slots" validate:"required,dive,timelabel"`
}

func toDays(slots []DaySlots) []schedule.DayAvailability {
	days := make([]schedule.DayAvailability, 0, len(slots))
	for _, v := range slots {
		days = append(days, schedule.DayAvailability{Day: v.Day, TimeSlots: v.TimeSlots})
	}
	return days
}

// validateDays checks the uniqueness rules the tags can't express.
func validateDays(field string, days []schedule.DayAvailability) error {
	if err := (schedule.Availability{Days: days}).Validate(); err != nil {
		return apierrors.NewValidationError(field, err.Error())
	}
	return nil
}

// ProfileRequest holds the professional data of a doctor.
type ProfileRequest struct {
	Name            string     `json:"name" validate:"required,min=2"`
	Speciality      string     `json:"speciality" validate:"required,min=2"`
	Post            string     `json:"post" validate:"required,min=2"`
	Experience      int        `json:"experience" validate:"min=0,max=60"`
	Qualifications  string     `json:"qualifications" validate:"required,min=5"`
	ConsultationFee float64    `json:"consultation_fee" validate:"min=0"`
	ClinicAddress   string     `json:"clinic_address" validate:"required,min=10"`
	AvailableSlots  []DaySlots `json:"available_slots,omitempty" validate:"omitempty,dive"`
}

// Validate validates if the profile given is valid.
func (p ProfileRequest) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	return validateDays("available_slots", toDays(p.AvailableSlots))
}

// AvailabilityRequest replaces the weekly template, the blocked dates or both. A missing
// field keeps the stored value.
type AvailabilityRequest struct {
	AvailableSlots *[]DaySlots `json:"available_slots" validate:"omitempty,dive"`
	BlockedDates   *[]string   `json:"blocked_dates" validate:"omitempty,dive,isodate"`
}

// Validate validates if the availability given is valid.
func (a AvailabilityRequest) Validate() error {
	if a.AvailableSlots == nil && a.BlockedDates == nil {
		return apierrors.NewValidationError("available_slots", "available_slots or blocked_dates is required")
	}
	if err := validation.Struct(a); err != nil {
		return err
	}
	if a.AvailableSlots != nil {
		return validateDays("available_slots", toDays(*a.AvailableSlots))
	}
	return nil
}

// days returns the requested template, or nil when it should be kept.
func (a AvailabilityRequest) days() *[]schedule.DayAvailability {
	if a.AvailableSlots == nil {
		return nil
	}
	days := toDays(*a.AvailableSlots)
	return &days
}

// blockedDates returns the requested blocked dates, deduplicated and normalized, or nil when
// they should be kept.
func (a AvailabilityRequest) blockedDates() *[]time.Time {
	if a.BlockedDates == nil {
		return nil
	}
	seen := make(map[time.Time]bool, len(*a.BlockedDates))
	dates := make([]time.Time, 0, len(*a.BlockedDates))
	for _, v := range *a.BlockedDates {
		date, err := schedule.ParseDate(v)
		if err != nil || seen[date] {
			continue
		}
		seen[date] = true
		dates = append(dates, date)
	}
	return &dates
}

// DoctorList is a page of the doctors directory.
type DoctorList struct {
	Doctors    []*Doctor       `json:"doctors"`
	Pagination pagination.Page `json:"pagination"`
}

package patients

import (
	"clinic-portal/internal/validation"

	"github.com/google/uuid"
)

// EmergencyContact is the person to be reached on behalf of the patient.
type EmergencyContact struct {
	Name     string `json:"name" validate:"required,min=2"`
	Phone    string `json:"phone" validate:"required,min=10"`
	Relation string `json:"relation" validate:"required,min=2"`
}

type Patient struct {
	ID               int64            `json:"-"`
	UUID             uuid.UUID        `json:"uuid"`
	UserID           int64            `json:"-"`
	Name             string           `json:"name"`
	Age              int              `json:"age"`
	Gender           string           `json:"gender"`
	Height           float64          `json:"height"`
	Weight           float64          `json:"weight"`
	BloodGroup       string           `json:"blood_group"`
	Allergies        []string         `json:"allergies"`
	MedicalHistory   []string         `json:"medical_history"`
	EmergencyContact EmergencyContact `json:"emergency_contact"`
}

// ProfileRequest holds the health profile of a patient. Height is given in centimeters and
// weight in kilograms.
type ProfileRequest struct {
	Name             string           `json:"name" validate:"required,min=2"`
	Age              int              `json:"age" validate:"min=0,max=150"`
	Gender           string           `json:"gender" validate:"required,oneof=male female other"`
	Height           float64          `json:"height" validate:"min=30,max=300"`
	Weight           float64          `json:"weight" validate:"min=1,max=500"`
	BloodGroup       string           `json:"blood_group" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies        []string         `json:"allergies,omitempty" validate:"omitempty,dive,required"`
	MedicalHistory   []string         `json:"medical_history,omitempty" validate:"omitempty,dive,required"`
	EmergencyContact EmergencyContact `json:"emergency_contact"`
}

// Validate validates if the profile given is valid.
func (p ProfileRequest) Validate() error {
	return validation.Struct(p)
}

// apply copies the requested data into the given patient.
func (p ProfileRequest) apply(patient *Patient) {
	patient.Name = p.Name
	patient.Age = p.Age
	patient.Gender = p.Gender
	patient.Height = p.Height
	patient.Weight = p.Weight
	patient.BloodGroup = p.BloodGroup
	patient.Allergies = nonNil(p.Allergies)
	patient.MedicalHistory = nonNil(p.MedicalHistory)
	patient.EmergencyContact = p.EmergencyContact
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

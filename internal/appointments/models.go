package appointments

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"clinic-portal/internal/apierrors"
	"clinic-portal/internal/pagination"
	"clinic-portal/internal/schedule"
	"clinic-portal/internal/validation"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}

// IsActive checks if the status holds its slot and counts against the daily cap.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// FamilyMember identifies the relative the appointment is booked for, when the patient
// books on someone else's behalf. It is stored as JSONB.
type FamilyMember struct {
	Name     string `json:"name" validate:"required,min=2"`
	Age      int    `json:"age" validate:"min=0,max=150"`
	Gender   string `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Relation string `json:"relation" validate:"required,min=2"`
}

func (f FamilyMember) Value() (driver.Value, error) {
	return json.Marshal(f)
}

func (f *FamilyMember) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	}
	return fmt.Errorf("unsupported family member value: %T", src)
}

type Appointment struct {
	ID                int64              `json:"-" dbfield:"id"`
	UUID              uuid.UUID          `json:"uuid" dbfield:"uuid"`
	DoctorID          int64              `json:"-" dbfield:"doctor_id"`
	DoctorUUID        uuid.UUID          `json:"doctor_id" dbfield:"doctor_uuid"`
	DoctorName        string             `json:"doctor_name" dbfield:"doctor_name"`
	PatientID         int64              `json:"-" dbfield:"patient_id"`
	PatientUUID       uuid.UUID          `json:"patient_id" dbfield:"patient_uuid"`
	PatientName       string             `json:"patient_name" dbfield:"patient_name"`
	Date              time.Time          `json:"-" dbfield:"appointment_date"`
	TimeSlot          schedule.TimeLabel `json:"time_slot" dbfield:"time_slot"`
	Mode              Mode               `json:"mode" dbfield:"mode"`
	Urgency           Urgency            `json:"urgency" dbfield:"urgency"`
	Symptoms          string             `json:"symptoms" dbfield:"symptoms"`
	Status            Status             `json:"status" dbfield:"status"`
	ConsultationNotes string             `json:"consultation_notes" dbfield:"consultation_notes"`
	FamilyMember      *FamilyMember      `json:"family_member,omitempty" dbfield:"family_member"`
	PreviousDate      *time.Time         `json:"-" dbfield:"previous_date"`
	PreviousTimeSlot  schedule.TimeLabel `json:"previous_time_slot,omitempty" dbfield:"previous_time_slot"`
	CreatedAt         time.Time          `json:"created_at" dbfield:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" dbfield:"updated_at"`
}

// MarshalJSON writes the calendar dates as YYYY-MM-DD.
func (a Appointment) MarshalJSON() ([]byte, error) {
	type appointment Appointment
	out := struct {
		appointment
		AppointmentDate string `json:"appointment_date"`
		PreviousDate    string `json:"previous_date,omitempty"`
	}{appointment: appointment(a), AppointmentDate: a.Date.Format(schedule.DateLayout)}
	if a.PreviousDate != nil {
		out.PreviousDate = a.PreviousDate.Format(schedule.DateLayout)
	}
	return json.Marshal(out)
}

// BookingRequest holds the data sent by a patient to book a slot.
type BookingRequest struct {
	DoctorID        uuid.UUID          `json:"doctor_id" validate:"required"`
	AppointmentDate string             `json:"appointment_date" validate:"required,isodate"`
	TimeSlot        schedule.TimeLabel `json:"time_slot" validate:"required,timelabel"`
	Mode            Mode               `json:"mode" validate:"required,oneof=online offline"`
	Urgency         Urgency            `json:"urgency" validate:"required,oneof=low medium high emergency"`
	Symptoms        string             `json:"symptoms" validate:"required,min=10"`
	FamilyMember    *FamilyMember      `json:"family_member,omitempty"`
}

// Validate validates if the booking given is valid.
func (b BookingRequest) Validate() error {
	return validation.Struct(b)
}

func (b BookingRequest) date() time.Time {
	date, _ := schedule.ParseDate(b.AppointmentDate)
	return date
}

// StatusUpdate holds a lifecycle transition, or only consultation notes when the status is
// omitted.
type StatusUpdate struct {
	Status            Status  `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected cancelled completed"`
	ConsultationNotes *string `json:"consultation_notes,omitempty" validate:"omitempty,max=5000"`
}

// Validate validates if the update given is valid.
func (s StatusUpdate) Validate() error {
	if s.Status == "" && s.ConsultationNotes == nil {
		return apierrors.NewValidationError("status", "status or consultation_notes is required")
	}
	return validation.Struct(s)
}

// RescheduleRequest moves an appointment to another date and slot of the same doctor.
type RescheduleRequest struct {
	AppointmentID uuid.UUID          `json:"appointment_id" validate:"required"`
	NewDate       string             `json:"new_date" validate:"required,isodate"`
	NewTimeSlot   schedule.TimeLabel `json:"new_time_slot" validate:"required,timelabel"`
}

// Validate validates if the reschedule given is valid.
func (r RescheduleRequest) Validate() error {
	return validation.Struct(r)
}

func (r RescheduleRequest) date() time.Time {
	date, _ := schedule.ParseDate(r.NewDate)
	return date
}

// AvailableSlots is the answer to a slots lookup of a doctor's date.
type AvailableSlots struct {
	schedule.Resolution
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
}

// AppointmentList is a page of appointments.
type AppointmentList struct {
	Appointments []*Appointment  `json:"appointments"`
	Pagination   pagination.Page `json:"pagination"`
}

// DoctorFilter narrows the appointments listed to a doctor.
type DoctorFilter struct {
	Status Status
	Date   *time.Time
}

// CalendarDay groups the appointments of a date.
type CalendarDay struct {
	Date         string           `json:"date"`
	Appointments []*CalendarEntry `json:"appointments"`
}

// CalendarEntry is the summarized view of an appointment in the calendar.
type CalendarEntry struct {
	UUID        uuid.UUID          `json:"uuid"`
	PatientName string             `json:"patient_name"`
	TimeSlot    schedule.TimeLabel `json:"time_slot"`
	Mode        Mode               `json:"mode"`
	Urgency     Urgency            `json:"urgency"`
	Status      Status             `json:"status"`
	Symptoms    string             `json:"symptoms"`
}

// Calendar is the doctor's view of a month or a year.
type Calendar struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Days    []CalendarDay  `json:"days"`
	Summary map[Status]int `json:"summary"`
	Total   int            `json:"total"`
}

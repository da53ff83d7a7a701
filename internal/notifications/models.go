package notifications

import (
	"time"

	"clinic-portal/internal/schedule"

	"github.com/google/uuid"
)

// Details holds what an appointment notification tells the patient.
type Details struct {
	AppointmentUUID  uuid.UUID          `dbfield:"uuid"`
	DoctorUserID     int64              `dbfield:"doctor_user_id"`
	DoctorName       string             `dbfield:"doctor_name"`
	PatientName      string             `dbfield:"patient_name"`
	PatientEmail     string             `dbfield:"patient_email"`
	Date             time.Time          `dbfield:"appointment_date"`
	TimeSlot         schedule.TimeLabel `dbfield:"time_slot"`
	Mode             string             `dbfield:"mode"`
	Status           string             `dbfield:"status"`
	PreviousDate     *time.Time         `dbfield:"previous_date"`
	PreviousTimeSlot schedule.TimeLabel `dbfield:"previous_time_slot"`
}

// FormattedDate returns the appointment date as YYYY-MM-DD.
func (d Details) FormattedDate() string {
	return d.Date.Format(schedule.DateLayout)
}

// FormattedPreviousDate returns the date held before the last reschedule, if any.
func (d Details) FormattedPreviousDate() string {
	if d.PreviousDate == nil {
		return ""
	}
	return d.PreviousDate.Format(schedule.DateLayout)
}

// Message is an email ready to be delivered.
type Message struct {
	To      string
	Subject string
	Body    string
}

// ResendRequest holds the data sent by a doctor to notify the patient again.
type ResendRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" validate:"required"`
	Type          Kind      `json:"type" validate:"required"`
}

// ReminderSummary reports the outcome of a reminder batch.
type ReminderSummary struct {
	Date       string `json:"date"`
	Total      int    `json:"total"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
}

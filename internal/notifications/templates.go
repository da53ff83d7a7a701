package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

var subjects = map[Kind]string{
	KindBooked:      "Appointment request received",
	KindApproved:    "Appointment approved",
	KindRejected:    "Appointment not accepted",
	KindCancelled:   "Appointment cancelled",
	KindRescheduled: "Appointment rescheduled",
	KindReminder:    "Appointment reminder",
}

// render builds the email of the given kind for the appointment.
func render(kind Kind, details Details) (Message, error) {
	subject, ok := subjects[kind]
	if !ok {
		return Message{}, fmt.Errorf("%s: %s", ErrUnknownKind, kind)
	}
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, string(kind)+".html", details); err != nil {
		return Message{}, fmt.Errorf("could not render the %s notification: %w", kind, err)
	}
	return Message{
		To:      details.PatientEmail,
		Subject: fmt.Sprintf("%s: %s on %s at %s", subject, details.DoctorName, details.FormattedDate(), details.TimeSlot),
		Body:    body.String(),
	}, nil
}

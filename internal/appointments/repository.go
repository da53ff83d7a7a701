package appointments

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clinic-portal/internal/database"
	"clinic-portal/internal/pagination"
	"clinic-portal/internal/schedule"

	"github.com/google/uuid"
)

const (
	appointmentColumns            = "a.id, a.uuid, a.doctor_id, d.uuid AS doctor_uuid, d.name AS doctor_name, a.patient_id, p.uuid AS patient_uuid, p.name AS patient_name, a.appointment_date, a.time_slot, a.mode, a.urgency, a.symptoms, a.status, COALESCE(a.consultation_notes, '') AS consultation_notes, a.family_member, a.previous_date, COALESCE(a.previous_time_slot, '') AS previous_time_slot, a.created_at, a.updated_at"
	appointmentFrom               = " FROM tb_appointment a JOIN tb_doctor d ON d.id = a.doctor_id JOIN tb_patient p ON p.id = a.patient_id"
	findAppointmentByUUIDQuery    = "SELECT " + appointmentColumns + appointmentFrom + " WHERE a.uuid = $1"
	countActiveQuery              = "SELECT COUNT(*) FROM tb_appointment WHERE doctor_id = $1 AND appointment_date = $2 AND status IN ('pending', 'approved') AND id <> $3"
	listTakenSlotsQuery           = "SELECT time_slot FROM tb_appointment WHERE doctor_id = $1 AND appointment_date = $2 AND status IN ('pending', 'approved') AND id <> $3"
	hasActiveAppointmentQuery     = "SELECT EXISTS (SELECT 1 FROM tb_appointment WHERE doctor_id = $1 AND appointment_date = $2 AND time_slot = $3 AND status IN ('pending', 'approved') AND id <> $4)"
	insertAppointmentQuery        = "INSERT INTO tb_appointment (uuid, doctor_id, patient_id, appointment_date, time_slot, mode, urgency, symptoms, status, family_member) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at, updated_at"
	updateStatusQuery             = "UPDATE tb_appointment SET status = $3, consultation_notes = COALESCE($4, consultation_notes), updated_at = NOW() WHERE id = $1 AND status = $2 RETURNING updated_at"
	updateScheduleQuery           = "UPDATE tb_appointment SET appointment_date = $2, time_slot = $3, previous_date = appointment_date, previous_time_slot = time_slot, updated_at = NOW() WHERE id = $1 AND status IN ('pending', 'approved') RETURNING updated_at"
	patientFilter                 = " WHERE a.patient_id = $1 AND ($2 = '' OR a.status = $2)"
	listPatientAppointmentsQuery  = "SELECT " + appointmentColumns + appointmentFrom + patientFilter + " ORDER BY a.created_at DESC, a.id DESC LIMIT $3 OFFSET $4"
	countPatientAppointmentsQuery = "SELECT COUNT(*)" + appointmentFrom + patientFilter
	doctorFilter                  = " WHERE a.doctor_id = $1 AND ($2 = '' OR a.status = $2) AND ($3 = '' OR a.appointment_date = $3::date)"
	listDoctorAppointmentsQuery   = "SELECT " + appointmentColumns + appointmentFrom + doctorFilter + " ORDER BY a.appointment_date, a.time_slot LIMIT $4 OFFSET $5"
	countDoctorAppointmentsQuery  = "SELECT COUNT(*)" + appointmentFrom + doctorFilter
	listAppointmentsBetweenQuery  = "SELECT " + appointmentColumns + appointmentFrom + " WHERE a.doctor_id = $1 AND a.appointment_date >= $2 AND a.appointment_date < $3 ORDER BY a.appointment_date, a.time_slot"
)

// Repository provides access to the appointment store. Appointments are never deleted.
type Repository interface {

	// FindAppointmentByUUID finds an appointment, with its doctor and patient names, by its UUID.
	FindAppointmentByUUID(ctx context.Context, uuid uuid.UUID) (*Appointment, error)

	// CountActive counts the active appointments of the doctor on the date, ignoring the
	// appointment identified by excludeID.
	CountActive(ctx context.Context, doctorID int64, date time.Time, excludeID int64) (int, error)

	// ListTakenSlots lists the labels held by active appointments of the doctor on the date,
	// ignoring the appointment identified by excludeID.
	ListTakenSlots(ctx context.Context, doctorID int64, date time.Time, excludeID int64) ([]schedule.TimeLabel, error)

	// HasActiveAppointment checks if an active appointment, other than excludeID, holds the slot.
	HasActiveAppointment(ctx context.Context, doctorID int64, date time.Time, label schedule.TimeLabel, excludeID int64) (bool, error)

	// InsertAppointment inserts the appointment. A unique violation means the slot was taken
	// by a concurrent booking.
	InsertAppointment(ctx context.Context, appointment *Appointment) error

	// UpdateStatus moves the appointment from one status to another, optionally attaching
	// consultation notes. It returns false when the stored status is no longer from.
	UpdateStatus(ctx context.Context, appointment *Appointment, from Status) (bool, error)

	// UpdateSchedule moves an active appointment to another date and slot, keeping the previous
	// ones. It returns false when the appointment is no longer active.
	UpdateSchedule(ctx context.Context, appointment *Appointment) (bool, error)

	// ListPatientAppointments lists a page of the patient's appointments, newest first.
	ListPatientAppointments(ctx context.Context, patientID int64, status Status, params pagination.Params) ([]*Appointment, int, error)

	// ListDoctorAppointments lists a page of the doctor's appointments in schedule order.
	ListDoctorAppointments(ctx context.Context, doctorID int64, filter DoctorFilter, params pagination.Params) ([]*Appointment, int, error)

	// ListAppointmentsBetween lists the doctor's appointments from the start date, inclusive,
	// to the end date, exclusive.
	ListAppointmentsBetween(ctx context.Context, doctorID int64, from, to time.Time) ([]*Appointment, error)
}

type defaultRepository struct {
	dbConn database.Connection
}

// newRepository creates a new Repository.
func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func dateParam(date time.Time) string {
	return date.Format(schedule.DateLayout)
}

func (d defaultRepository) listAppointments(ctx context.Context, query string, args ...interface{}) ([]*Appointment, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not list appointments: %w", err)
	}
	defer database.CloseRows(rows)
	appointments := make([]*Appointment, 0)
	for rows.Next() {
		appointment := new(Appointment)
		if err = database.TransformRow(rows, appointment); err != nil {
			return nil, err
		}
		appointment.Date = schedule.StartOfDay(appointment.Date)
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}

func (d defaultRepository) FindAppointmentByUUID(ctx context.Context, uuid uuid.UUID) (*Appointment, error) {
	appointments, err := d.listAppointments(ctx, findAppointmentByUUIDQuery, uuid.String())
	if err != nil || len(appointments) == 0 {
		return nil, err
	}
	return appointments[0], nil
}

func (d defaultRepository) CountActive(ctx context.Context, doctorID int64, date time.Time, excludeID int64) (int, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	var count int
	if err := d.dbConn.DB().QueryRowContext(ctx, countActiveQuery, doctorID, dateParam(date), excludeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("could not count active appointments: %w", err)
	}
	return count, nil
}

func (d defaultRepository) ListTakenSlots(ctx context.Context, doctorID int64, date time.Time, excludeID int64) ([]schedule.TimeLabel, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, listTakenSlotsQuery, doctorID, dateParam(date), excludeID)
	if err != nil {
		return nil, fmt.Errorf("could not list taken slots: %w", err)
	}
	defer database.CloseRows(rows)
	taken := make([]schedule.TimeLabel, 0)
	for rows.Next() {
		var label string
		if err = rows.Scan(&label); err != nil {
			return nil, err
		}
		taken = append(taken, schedule.TimeLabel(label))
	}
	return taken, rows.Err()
}

func (d defaultRepository) HasActiveAppointment(ctx context.Context, doctorID int64, date time.Time, label schedule.TimeLabel, excludeID int64) (bool, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	var exists bool
	row := d.dbConn.DB().QueryRowContext(ctx, hasActiveAppointmentQuery, doctorID, dateParam(date), string(label), excludeID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("could not check the slot: %w", err)
	}
	return exists, nil
}

func (d defaultRepository) InsertAppointment(ctx context.Context, appointment *Appointment) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	var familyMember interface{}
	if appointment.FamilyMember != nil {
		familyMember = *appointment.FamilyMember
	}
	row := d.dbConn.DB().QueryRowContext(ctx, insertAppointmentQuery,
		appointment.UUID.String(), appointment.DoctorID, appointment.PatientID, dateParam(appointment.Date),
		string(appointment.TimeSlot), string(appointment.Mode), string(appointment.Urgency), appointment.Symptoms,
		string(appointment.Status), familyMember)
	return row.Scan(&appointment.ID, &appointment.CreatedAt, &appointment.UpdatedAt)
}

func (d defaultRepository) UpdateStatus(ctx context.Context, appointment *Appointment, from Status) (bool, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	notes := sql.NullString{String: appointment.ConsultationNotes, Valid: appointment.ConsultationNotes != ""}
	row := d.dbConn.DB().QueryRowContext(ctx, updateStatusQuery, appointment.ID, string(from), string(appointment.Status), notes)
	return scanUpdated(row, appointment)
}

func (d defaultRepository) UpdateSchedule(ctx context.Context, appointment *Appointment) (bool, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	row := d.dbConn.DB().QueryRowContext(ctx, updateScheduleQuery, appointment.ID, dateParam(appointment.Date), string(appointment.TimeSlot))
	return scanUpdated(row, appointment)
}

// scanUpdated reads the RETURNING clause of a conditional update, where no row means the
// condition no longer holds.
func scanUpdated(row *sql.Row, appointment *Appointment) (bool, error) {
	if err := row.Scan(&appointment.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d defaultRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	var total int
	if err := d.dbConn.DB().QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("could not count appointments: %w", err)
	}
	return total, nil
}

func (d defaultRepository) ListPatientAppointments(ctx context.Context, patientID int64, status Status, params pagination.Params) ([]*Appointment, int, error) {
	total, err := d.count(ctx, countPatientAppointmentsQuery, patientID, string(status))
	if err != nil {
		return nil, 0, err
	}
	appointments, err := d.listAppointments(ctx, listPatientAppointmentsQuery, patientID, string(status), params.Limit, params.Offset())
	return appointments, total, err
}

func (d defaultRepository) ListDoctorAppointments(ctx context.Context, doctorID int64, filter DoctorFilter, params pagination.Params) ([]*Appointment, int, error) {
	date := ""
	if filter.Date != nil {
		date = dateParam(*filter.Date)
	}
	total, err := d.count(ctx, countDoctorAppointmentsQuery, doctorID, string(filter.Status), date)
	if err != nil {
		return nil, 0, err
	}
	appointments, err := d.listAppointments(ctx, listDoctorAppointmentsQuery, doctorID, string(filter.Status), date, params.Limit, params.Offset())
	return appointments, total, err
}

func (d defaultRepository) ListAppointmentsBetween(ctx context.Context, doctorID int64, from, to time.Time) ([]*Appointment, error) {
	return d.listAppointments(ctx, listAppointmentsBetweenQuery, doctorID, dateParam(from), dateParam(to))
}

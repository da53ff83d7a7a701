package notifications

import (
	"context"
	"fmt"
	"time"

	"clinic-portal/internal/database"
	"clinic-portal/internal/schedule"

	"github.com/google/uuid"
)

const (
	detailsColumns        = "a.uuid, d.user_id AS doctor_user_id, d.name AS doctor_name, p.name AS patient_name, u.email AS patient_email, a.appointment_date, a.time_slot, a.mode, a.status, a.previous_date, COALESCE(a.previous_time_slot, '') AS previous_time_slot"
	detailsFrom           = " FROM tb_appointment a JOIN tb_doctor d ON d.id = a.doctor_id JOIN tb_patient p ON p.id = a.patient_id JOIN tb_user u ON u.id = p.user_id"
	findDetailsQuery      = "SELECT " + detailsColumns + detailsFrom + " WHERE a.uuid = $1"
	listDueRemindersQuery = "SELECT " + detailsColumns + detailsFrom + " WHERE a.appointment_date = $1 AND a.status = 'approved' ORDER BY a.time_slot, a.id"
)

// Repository reads what notifications tell the patient.
type Repository interface {

	// FindDetails finds the notification details of an appointment.
	FindDetails(ctx context.Context, appointmentUUID uuid.UUID) (*Details, error)

	// ListDueReminders lists the approved appointments of the date.
	ListDueReminders(ctx context.Context, date time.Time) ([]*Details, error)
}

type defaultRepository struct {
	dbConn database.Connection
}

func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) list(ctx context.Context, query string, args ...interface{}) ([]*Details, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not load notification details: %w", err)
	}
	defer database.CloseRows(rows)
	list := make([]*Details, 0)
	for rows.Next() {
		details := new(Details)
		if err = database.TransformRow(rows, details); err != nil {
			return nil, err
		}
		details.Date = schedule.StartOfDay(details.Date)
		list = append(list, details)
	}
	return list, rows.Err()
}

func (d defaultRepository) FindDetails(ctx context.Context, appointmentUUID uuid.UUID) (*Details, error) {
	list, err := d.list(ctx, findDetailsQuery, appointmentUUID.String())
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (d defaultRepository) ListDueReminders(ctx context.Context, date time.Time) ([]*Details, error) {
	return d.list(ctx, listDueRemindersQuery, date.Format(schedule.DateLayout))
}

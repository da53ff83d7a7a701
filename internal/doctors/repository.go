package doctors

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clinic-portal/internal/database"
	"clinic-portal/internal/pagination"
	"clinic-portal/internal/schedule"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	doctorColumns            = "id, uuid, user_id, name, speciality, post, experience, qualifications, consultation_fee, clinic_address"
	findDoctorByUUIDQuery    = "SELECT " + doctorColumns + " FROM tb_doctor WHERE uuid = $1"
	findDoctorByUserIDQuery  = "SELECT " + doctorColumns + " FROM tb_doctor WHERE user_id = $1"
	listDoctorsQuery         = "SELECT " + doctorColumns + " FROM tb_doctor WHERE ($1 = '' OR speciality ILIKE '%' || $1 || '%') ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3"
	countDoctorsQuery        = "SELECT COUNT(*) FROM tb_doctor WHERE ($1 = '' OR speciality ILIKE '%' || $1 || '%')"
	insertDoctorQuery        = "INSERT INTO tb_doctor (uuid, user_id, name, speciality, post, experience, qualifications, consultation_fee, clinic_address) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id"
	updateDoctorQuery        = "UPDATE tb_doctor SET name = $2, speciality = $3, post = $4, experience = $5, qualifications = $6, consultation_fee = $7, clinic_address = $8 WHERE id = $1"
	markProfileCompleteQuery = "UPDATE tb_user SET is_profile_complete = TRUE WHERE id = $1"
	listAvailabilityQuery    = "SELECT day, time_slots FROM tb_doctor_availability WHERE doctor_id = $1 ORDER BY position"
	deleteAvailabilityQuery  = "DELETE FROM tb_doctor_availability WHERE doctor_id = $1"
	insertAvailabilityQuery  = "INSERT INTO tb_doctor_availability (doctor_id, day, position, time_slots) VALUES ($1, $2, $3, $4)"
	listBlockedDatesQuery    = "SELECT blocked_date FROM tb_doctor_blocked_date WHERE doctor_id = $1 ORDER BY blocked_date"
	deleteBlockedDatesQuery  = "DELETE FROM tb_doctor_blocked_date WHERE doctor_id = $1"
	insertBlockedDateQuery   = "INSERT INTO tb_doctor_blocked_date (doctor_id, blocked_date) VALUES ($1, $2)"
)

// Repository provides access to doctors data.
type Repository interface {

	// FindDoctorByUUID finds a doctor by its UUID, without its availability.
	FindDoctorByUUID(ctx context.Context, uuid uuid.UUID) (*Doctor, error)

	// FindDoctorByUserID finds a doctor by its user ID, without its availability.
	FindDoctorByUserID(ctx context.Context, userID int64) (*Doctor, error)

	// LoadAvailability loads the weekly template and the blocked dates of the doctor.
	LoadAvailability(ctx context.Context, doctorID int64) (schedule.Availability, error)

	// ListDoctors lists a page of doctors whose speciality contains the given one, ignoring case.
	ListDoctors(ctx context.Context, speciality string, params pagination.Params) ([]*Doctor, int, error)

	// InsertDoctor inserts the doctor with its weekly template and marks the user profile as complete.
	InsertDoctor(ctx context.Context, doctor *Doctor) error

	// UpdateDoctor updates the professional data of the doctor.
	UpdateDoctor(ctx context.Context, doctor Doctor) error

	// ReplaceAvailability replaces the weekly template and/or the blocked dates, atomically.
	// A nil argument keeps the stored value.
	ReplaceAvailability(ctx context.Context, doctorID int64, days *[]schedule.DayAvailability, blockedDates *[]time.Time) error
}

type defaultRepository struct {
	dbConn database.Connection
}

// newRepository creates a new Repository.
func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) findDoctor(ctx context.Context, query string, param interface{}) (*Doctor, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, query, param)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	doctor := new(Doctor)
	for rows.Next() {
		if err = database.TransformRow(rows, doctor); err != nil {
			return nil, err
		}
		if doctor.ID > 0 {
			return doctor, nil
		}
	}
	return nil, rows.Err()
}

func (d defaultRepository) FindDoctorByUUID(ctx context.Context, uuid uuid.UUID) (*Doctor, error) {
	return d.findDoctor(ctx, findDoctorByUUIDQuery, uuid.String())
}

func (d defaultRepository) FindDoctorByUserID(ctx context.Context, userID int64) (*Doctor, error) {
	return d.findDoctor(ctx, findDoctorByUserIDQuery, userID)
}

func (d defaultRepository) LoadAvailability(ctx context.Context, doctorID int64) (schedule.Availability, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	availability := schedule.Availability{Days: []schedule.DayAvailability{}, BlockedDates: []time.Time{}}
	rows, err := d.dbConn.DB().QueryContext(ctx, listAvailabilityQuery, doctorID)
	if err != nil {
		return availability, fmt.Errorf("could not load the weekly template: %w", err)
	}
	defer database.CloseRows(rows)
	for rows.Next() {
		var day string
		var slots []string
		if err = rows.Scan(&day, pq.Array(&slots)); err != nil {
			return availability, fmt.Errorf("could not parse the weekly template: %w", err)
		}
		entry := schedule.DayAvailability{Day: schedule.DayOfWeek(day), TimeSlots: make([]schedule.TimeLabel, 0, len(slots))}
		for _, v := range slots {
			entry.TimeSlots = append(entry.TimeSlots, schedule.TimeLabel(v))
		}
		availability.Days = append(availability.Days, entry)
	}
	if err = rows.Err(); err != nil {
		return availability, err
	}

	dates, err := d.dbConn.DB().QueryContext(ctx, listBlockedDatesQuery, doctorID)
	if err != nil {
		return availability, fmt.Errorf("could not load the blocked dates: %w", err)
	}
	defer database.CloseRows(dates)
	for dates.Next() {
		var date time.Time
		if err = dates.Scan(&date); err != nil {
			return availability, fmt.Errorf("could not parse the blocked dates: %w", err)
		}
		availability.BlockedDates = append(availability.BlockedDates, schedule.StartOfDay(date))
	}
	return availability, dates.Err()
}

// escapeLike escapes the wildcards of a LIKE pattern.
func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func (d defaultRepository) ListDoctors(ctx context.Context, speciality string, params pagination.Params) ([]*Doctor, int, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	pattern := escapeLike(strings.TrimSpace(speciality))
	var total int
	if err := d.dbConn.DB().QueryRowContext(ctx, countDoctorsQuery, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("could not count doctors: %w", err)
	}
	rows, err := d.dbConn.DB().QueryContext(ctx, listDoctorsQuery, pattern, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("could not list doctors: %w", err)
	}
	defer database.CloseRows(rows)
	doctors := make([]*Doctor, 0, params.Limit)
	for rows.Next() {
		doctor := new(Doctor)
		if err = database.TransformRow(rows, doctor); err != nil {
			return nil, 0, err
		}
		doctors = append(doctors, doctor)
	}
	return doctors, total, rows.Err()
}

func (d defaultRepository) InsertDoctor(ctx context.Context, doctor *Doctor) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	return database.WithTransaction(ctx, d.dbConn, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, insertDoctorQuery,
			doctor.UUID.String(), doctor.UserID, doctor.Name, doctor.Speciality, doctor.Post,
			doctor.Experience, doctor.Qualifications, doctor.ConsultationFee, doctor.ClinicAddress)
		if err := row.Scan(&doctor.ID); err != nil {
			return err
		}
		if err := insertDays(ctx, tx, doctor.ID, doctor.Availability.Days); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, markProfileCompleteQuery, doctor.UserID)
		return err
	})
}

func (d defaultRepository) UpdateDoctor(ctx context.Context, doctor Doctor) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	_, err := d.dbConn.DB().ExecContext(ctx, updateDoctorQuery,
		doctor.ID, doctor.Name, doctor.Speciality, doctor.Post, doctor.Experience,
		doctor.Qualifications, doctor.ConsultationFee, doctor.ClinicAddress)
	return err
}

func (d defaultRepository) ReplaceAvailability(ctx context.Context, doctorID int64, days *[]schedule.DayAvailability, blockedDates *[]time.Time) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	return database.WithTransaction(ctx, d.dbConn, func(tx *sql.Tx) error {
		if days != nil {
			if _, err := tx.ExecContext(ctx, deleteAvailabilityQuery, doctorID); err != nil {
				return err
			}
			if err := insertDays(ctx, tx, doctorID, *days); err != nil {
				return err
			}
		}
		if blockedDates != nil {
			if _, err := tx.ExecContext(ctx, deleteBlockedDatesQuery, doctorID); err != nil {
				return err
			}
			for _, v := range *blockedDates {
				if _, err := tx.ExecContext(ctx, insertBlockedDateQuery, doctorID, v.Format(schedule.DateLayout)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// insertDays inserts the template entries keeping their order.
func insertDays(ctx context.Context, tx *sql.Tx, doctorID int64, days []schedule.DayAvailability) error {
	for position, entry := range days {
		slots := make([]string, 0, len(entry.TimeSlots))
		for _, v := range entry.TimeSlots {
			slots = append(slots, string(v))
		}
		if _, err := tx.ExecContext(ctx, insertAvailabilityQuery, doctorID, string(entry.Day), position, pq.Array(slots)); err != nil {
			return err
		}
	}
	return nil
}

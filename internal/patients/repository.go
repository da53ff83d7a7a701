package patients

import (
	"context"
	"database/sql"

	"clinic-portal/internal/database"

	"github.com/lib/pq"
)

const (
	patientColumns           = "id, uuid, user_id, name, age, gender, height, weight, blood_group, allergies, medical_history, emergency_contact_name, emergency_contact_phone, emergency_contact_relation"
	findPatientByUserIDQuery = "SELECT " + patientColumns + " FROM tb_patient WHERE user_id = $1"
	insertPatientQuery       = "INSERT INTO tb_patient (uuid, user_id, name, age, gender, height, weight, blood_group, allergies, medical_history, emergency_contact_name, emergency_contact_phone, emergency_contact_relation) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id"
	updatePatientQuery       = "UPDATE tb_patient SET name = $2, age = $3, gender = $4, height = $5, weight = $6, blood_group = $7, allergies = $8, medical_history = $9, emergency_contact_name = $10, emergency_contact_phone = $11, emergency_contact_relation = $12 WHERE id = $1"
	markProfileCompleteQuery = "UPDATE tb_user SET is_profile_complete = TRUE WHERE id = $1"
)

// Repository provides access to patients data.
type Repository interface {

	// FindPatientByUserID finds a patient by its user ID.
	FindPatientByUserID(ctx context.Context, userID int64) (*Patient, error)

	// InsertPatient inserts the patient and marks the user profile as complete.
	InsertPatient(ctx context.Context, patient *Patient) error

	// UpdatePatient updates the health profile of the patient.
	UpdatePatient(ctx context.Context, patient Patient) error
}

type defaultRepository struct {
	dbConn database.Connection
}

// newRepository creates a new Repository.
func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) FindPatientByUserID(ctx context.Context, userID int64) (*Patient, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, findPatientByUserIDQuery, userID)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	if !rows.Next() {
		return nil, rows.Err()
	}
	patient := new(Patient)
	err = rows.Scan(&patient.ID, &patient.UUID, &patient.UserID, &patient.Name, &patient.Age, &patient.Gender,
		&patient.Height, &patient.Weight, &patient.BloodGroup, pq.Array(&patient.Allergies), pq.Array(&patient.MedicalHistory),
		&patient.EmergencyContact.Name, &patient.EmergencyContact.Phone, &patient.EmergencyContact.Relation)
	if err != nil {
		return nil, err
	}
	return patient, nil
}

func (d defaultRepository) InsertPatient(ctx context.Context, patient *Patient) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	return database.WithTransaction(ctx, d.dbConn, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, insertPatientQuery,
			patient.UUID.String(), patient.UserID, patient.Name, patient.Age, patient.Gender, patient.Height,
			patient.Weight, patient.BloodGroup, pq.Array(patient.Allergies), pq.Array(patient.MedicalHistory),
			patient.EmergencyContact.Name, patient.EmergencyContact.Phone, patient.EmergencyContact.Relation)
		if err := row.Scan(&patient.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, markProfileCompleteQuery, patient.UserID)
		return err
	})
}

func (d defaultRepository) UpdatePatient(ctx context.Context, patient Patient) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	_, err := d.dbConn.DB().ExecContext(ctx, updatePatientQuery,
		patient.ID, patient.Name, patient.Age, patient.Gender, patient.Height, patient.Weight, patient.BloodGroup,
		pq.Array(patient.Allergies), pq.Array(patient.MedicalHistory),
		patient.EmergencyContact.Name, patient.EmergencyContact.Phone, patient.EmergencyContact.Relation)
	return err
}

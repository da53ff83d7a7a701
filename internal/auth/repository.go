package auth

import (
	"context"
	"database/sql"
	"errors"

	"clinic-portal/internal/database"

	"github.com/google/uuid"
)

const (
	selectUser             = "SELECT id, uuid, email, role, is_profile_complete FROM tb_user"
	findUserByUUIDQuery    = selectUser + " WHERE uuid = $1"
	findUserByEmailQuery   = selectUser + " WHERE email = $1"
	checkUserPasswordQuery = "SELECT id, password FROM tb_user WHERE email = $1"
	insertUserQuery        = "INSERT INTO tb_user (uuid, email, password, role) VALUES ($1, $2, $3, $4) RETURNING id"
)

// Repository provides access to the portal accounts. Lookups return a nil user, without
// error, when nothing matches.
type Repository interface {
	FindUserByUUID(ctx context.Context, uuid uuid.UUID) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// CheckUserPassword compares the password against the stored hash of the account.
	CheckUserPassword(ctx context.Context, email string, password string) (bool, error)

	// InsertUser stores the user, whose password must already be hashed, and sets its ID.
	InsertUser(ctx context.Context, user *User) error
}

type defaultRepository struct {
	dbConn database.Connection
}

func newRepository(dbConn database.Connection) Repository {
	return &defaultRepository{dbConn: dbConn}
}

func (d defaultRepository) findUser(ctx context.Context, query string, arg string) (*User, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	rows, err := d.dbConn.DB().QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer database.CloseRows(rows)
	if !rows.Next() {
		return nil, rows.Err()
	}
	user := new(User)
	if err = database.TransformRow(rows, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (d defaultRepository) FindUserByUUID(ctx context.Context, id uuid.UUID) (*User, error) {
	return d.findUser(ctx, findUserByUUIDQuery, id.String())
}

func (d defaultRepository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return d.findUser(ctx, findUserByEmailQuery, email)
}

func (d defaultRepository) CheckUserPassword(ctx context.Context, email string, password string) (bool, error) {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	var (
		id     int64
		hashed string
	)
	err := d.dbConn.DB().QueryRowContext(ctx, checkUserPasswordQuery, email).Scan(&id, &hashed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}
	return ComparePasswords(hashed, password), nil
}

func (d defaultRepository) InsertUser(ctx context.Context, user *User) error {
	ctx, cancel := d.dbConn.CreateContext(ctx)
	defer cancel()
	return d.dbConn.DB().
		QueryRowContext(ctx, insertUserQuery, user.UUID.String(), user.Email, user.Password, string(user.Role)).
		Scan(&user.ID)
}

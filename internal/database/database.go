// Package database opens the PostgreSQL pool, applies the embedded schema and maps rows
// into structs.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"reflect"
	"time"

	"clinic-portal/internal/configs"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// uniqueViolation is the PostgreSQL SQLSTATE raised when a unique index rejects a write.
const uniqueViolation = "23505"

//go:embed schema.sql
var schema string

var stringSliceType = reflect.TypeOf([]string(nil))

const (
	queryTimeout    = 5 * time.Second
	connMaxLifetime = 3 * time.Minute
)

// Connection gives the repositories access to the pool and bounds their statements.
type Connection interface {
	DB() *sql.DB

	// CreateContext derives a context that expires after the query timeout.
	CreateContext(ctx context.Context) (context.Context, context.CancelFunc)
	Close()
}

type defaultConnection struct {
	db     *sql.DB
	logger zerolog.Logger
}

func (d *defaultConnection) DB() *sql.DB {
	return d.db
}

func (d *defaultConnection) CreateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

// NewConnection opens the pool described by the configuration and checks the server answers.
func NewConnection(config configs.Config, logger zerolog.Logger) (Connection, error) {
	db, err := sql.Open(config.DatabaseDriver(), config.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("could not create a connection: %w", err)
	}
	db.SetConnMaxLifetime(connMaxLifetime)
	conn := &defaultConnection{db: db, logger: logger}
	ctx, cancel := conn.CreateContext(context.Background())
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database is not reachable: %w", err)
	}
	return conn, nil
}

func (d *defaultConnection) Close() {
	if err := d.db.Close(); err != nil {
		d.logger.Error().Err(err).Msg("could not close the database connection")
		return
	}
	d.logger.Info().Msg("database connection released")
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, dbConn Connection) error {
	if _, err := dbConn.DB().ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("could not apply the schema: %w", err)
	}
	return nil
}

// CloseRows closes the given rows.
func CloseRows(rows *sql.Rows) {
	_ = rows.Close()
}

// IsUniqueViolation checks if the given error was raised by a unique constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// WithTransaction runs fn inside a transaction, committing when fn succeeds and rolling
// back otherwise.
func WithTransaction(ctx context.Context, dbConn Connection, fn func(tx *sql.Tx) error) error {
	tx, err := dbConn.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// TransformRow scans the current row into the struct pointed by model, matching every
// column to the field tagged with the same dbfield. []string fields are scanned as
// PostgreSQL text arrays.
func TransformRow(rows *sql.Rows, model interface{}) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	targets, err := scanTargets(columns, model)
	if err != nil {
		return err
	}
	return rows.Scan(targets...)
}

func scanTargets(columns []string, model interface{}) ([]interface{}, error) {
	modelType := reflect.TypeOf(model).Elem()
	modelValue := reflect.ValueOf(model).Elem()
	values := make([]interface{}, 0, len(columns))
	for _, column := range columns {
		found := false
		for i := 0; i < modelType.NumField(); i++ {
			field := modelType.Field(i)
			if field.Tag.Get("dbfield") != column {
				continue
			}
			target := modelValue.Field(i).Addr().Interface()
			if field.Type == stringSliceType {
				target = pq.Array(target)
			}
			values = append(values, target)
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("column %s has no matching field in %s", column, modelType.Name())
		}
	}
	return values, nil
}

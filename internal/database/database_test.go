package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

type testConnection struct {
	db *sql.DB
}

func (t testConnection) DB() *sql.DB {
	return t.db
}

func (t testConnection) CreateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(ctx)
}

func (t testConnection) Close() {
	_ = t.db.Close()
}

type row struct {
	ID     int64     `dbfield:"id"`
	UUID   uuid.UUID `dbfield:"uuid"`
	Name   string    `dbfield:"name"`
	Tags   []string  `dbfield:"tags"`
	Ignore string
}

func TestTransformRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	id := uuid.New()
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "uuid", "name", "tags"}).AddRow(1, id.String(), "ana", "{a,b}"),
	)
	rows, err := db.Query("SELECT")
	if err != nil {
		t.Fatal(err)
	}
	defer CloseRows(rows)
	got := new(row)
	for rows.Next() {
		if err = TransformRow(rows, got); err != nil {
			t.Fatalf("TransformRow() error = %v", err)
		}
	}
	if got.ID != 1 || got.UUID != id || got.Name != "ana" {
		t.Errorf("TransformRow() got %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "a" || got.Tags[1] != "b" {
		t.Errorf("TransformRow() tags = %v", got.Tags)
	}
}

func TestTransformRowUnknownColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id", "unknown"}).AddRow(1, "x"))
	rows, err := db.Query("SELECT")
	if err != nil {
		t.Fatal(err)
	}
	defer CloseRows(rows)
	for rows.Next() {
		if err = TransformRow(rows, new(row)); err == nil {
			t.Error("TransformRow() should fail on a column without field")
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique violation", err: &pq.Error{Code: "23505"}, want: true},
		{name: "wrapped unique violation", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), want: true},
		{name: "foreign key violation", err: &pq.Error{Code: "23503"}, want: false},
		{name: "other error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithTransaction(t *testing.T) {
	t.Run("commits when the function succeeds", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		mock.ExpectBegin()
		mock.ExpectExec("DELETE").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		err = WithTransaction(context.Background(), testConnection{db: db}, func(tx *sql.Tx) error {
			_, err := tx.Exec("DELETE")
			return err
		})
		if err != nil {
			t.Errorf("WithTransaction() error = %v", err)
		}
		if err = mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
	t.Run("rolls back when the function fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		mock.ExpectBegin()
		mock.ExpectRollback()
		want := errors.New("boom")
		err = WithTransaction(context.Background(), testConnection{db: db}, func(tx *sql.Tx) error {
			return want
		})
		if !errors.Is(err, want) {
			t.Errorf("WithTransaction() error = %v, want %v", err, want)
		}
		if err = mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tb_user").WillReturnResult(sqlmock.NewResult(0, 0))
	if err = Migrate(context.Background(), testConnection{db: db}); err != nil {
		t.Errorf("Migrate() error = %v", err)
	}
	if !strings.Contains(schema, "WHERE status IN ('pending', 'approved')") {
		t.Error("schema must restrict the slot index to active appointments")
	}
}

func TestClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectClose()
	conn := &defaultConnection{db: db, logger: zerolog.Nop()}
	conn.Close()
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

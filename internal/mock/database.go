// Package mock provides a sqlmock backed database.Connection for tests.
package mock

import (
	"context"
	"database/sql"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const queryTimeout = 5 * time.Second

// Connection satisfies database.Connection on top of sqlmock. Tests register their
// expectations through SQLMock.
type Connection struct {
	db      *sql.DB
	SQLMock sqlmock.Sqlmock
}

func (c Connection) CreateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}

func (c Connection) DB() *sql.DB {
	return c.db
}

func (c Connection) Close() {
	_ = c.db.Close()
}

func mustConnect(ordered bool) Connection {
	db, sqlMock, err := sqlmock.New()
	if err != nil {
		panic(err)
	}
	sqlMock.MatchExpectationsInOrder(ordered)
	return Connection{db: db, SQLMock: sqlMock}
}

// MustCreateConnectionMock accepts the registered expectations in any order, since
// handlers usually issue lookups before the statement under test.
func MustCreateConnectionMock() Connection {
	return mustConnect(false)
}

// MustCreateOrderedConnectionMock enforces the registration order, which transactions need.
func MustCreateOrderedConnectionMock() Connection {
	return mustConnect(true)
}

// DBResultOption registers one group of expectations.
type DBResultOption func(dbConn Connection)

// MockDBResults applies the options in order.
func MockDBResults(dbConn Connection, opts ...DBResultOption) {
	for _, opt := range opts {
		opt(dbConn)
	}
}

// Package database is the sql implementation of the chatter store.
//
// Both sqlite and postgres are supported. Static queries are written with `?`
// and rebound for the driver; dynamic ones go through squirrel.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jdholdren/chatter/internal/chatter"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Ensure Repo implements the Repository interface
var _ chatter.Repository = Repo{}

type Repo struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
}

func New(db *sqlx.DB) Repo {
	var format sq.PlaceholderFormat = sq.Question
	if db.DriverName() == "pgx" {
		format = sq.Dollar
	}

	return Repo{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}
}

// Open connects to the database for the given driver, without checking that
// it's reachable.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite"
		return sqlx.Open("sqlite", dsn)
	case DriverPostgres:
		return sqlx.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// now is the timestamp written on inserts and updates. Everything is stored in
// UTC so that ranges compare the same on both dialects.
var now = func() time.Time {
	return time.Now().UTC()
}

func (r Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	if sqliteErr := (&sqlite.Error{}); errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	if pgErr := (&pgconn.PgError{}); errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	return false
}

func isCheckViolation(err error) bool {
	if sqliteErr := (&sqlite.Error{}); errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_CHECK
	}
	if pgErr := (&pgconn.PgError{}); errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}

	return false
}

func isForeignKeyViolation(err error) bool {
	if sqliteErr := (&sqlite.Error{}); errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	if pgErr := (&pgconn.PgError{}); errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}

	return false
}

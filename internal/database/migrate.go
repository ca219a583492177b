package database

import (
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/chatter/internal/migrations"
)

// RunMigrations brings the schema up to date for the connection's dialect.
func RunMigrations(dbx *sqlx.DB) error {
	dirName, dbName := migrations.SQLiteDir, "sqlite3"
	if dbx.DriverName() == "pgx" {
		dirName, dbName = migrations.PostgresDir, "pgx5"
	}

	d, err := iofs.New(migrations.FS, dirName)
	if err != nil {
		return fmt.Errorf("error creating migrations source: %s", err)
	}

	var i migratedb.Driver
	if dbName == "pgx5" {
		i, err = pgx.WithInstance(dbx.DB, &pgx.Config{})
	} else {
		i, err = sqlite.WithInstance(dbx.DB, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("error creating %s instance for migration: %s", dbName, err)
	}

	migrator, err := migrate.NewWithInstance("iofs", d, dbName, i)
	if err != nil {
		return fmt.Errorf("error creating migrator: %s", err)
	}
	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("error migrating: %s", err)
	}
	slog.Info("migrated", "dialect", dbName)

	return nil
}

package db

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var fs embed.FS

func newMigrate(dbPath string) (*migrate.Migrate, error) {
	// Create a new source instance using the embedded migrations
	d, err := iofs.New(fs, "migrations")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithSourceInstance("iofs", d, "sqlite://"+dbPath)
}

// Migrate runs the SQLite database migrations using golang-migrate
func Migrate(dbPath string) error {
	log.WithFields(log.Fields{"database": dbPath}).Info("Running migrations")

	m, err := newMigrate(dbPath)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

// Rollback rolls back the last migration
func Rollback(dbPath string) error {
	log.WithFields(log.Fields{"database": dbPath}).Info("Rolling back migration")

	m, err := newMigrate(dbPath)
	if err != nil {
		return err
	}

	if err := m.Steps(-1); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

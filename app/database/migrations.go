package database

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/search/*.sql migrations/article/*.sql
var migrationFS embed.FS

// RunSearchMigrations applies pending migrations to the search index store.
func RunSearchMigrations(db *DB) error {
	return runMigrations(db, "migrations/search")
}

// RunArticleMigrations applies pending migrations to the article data store.
func RunArticleMigrations(db *DB) error {
	return runMigrations(db, "migrations/article")
}

func runMigrations(db *DB, dir string) error {
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationFS, dir)
	if err != nil {
		return fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/lib/pq"

	"clnrmgo/internal/schema"
)

// MigrationRunner is the command surface the migrator CLI drives.
type MigrationRunner interface {
	Up() error
	Down() error
	Status() error
	Version() error
	Drop() error
	Close() error
}

// Runner implements MigrationRunner over an embedded golang-migrate
// instance; its *.sql files ship inside the binary, so the cleanroom
// database plugin never depends on a migrations directory existing on
// the container host.
type Runner struct {
	config  *Config
	migrate *migrate.Migrate
	db      *sql.DB
	set     *schema.MigrationSet
}

type migrateLogger struct{}

var _ migrate.Logger = (*migrateLogger)(nil)

// NewMigrationRunner opens the database and wires an embedded-source
// migrate.Migrate instance over it.
func NewMigrationRunner(cfg *Config) (*Runner, error) {
	set := schema.NewMigrationSet(nil)
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("validate embedded migrations: %w", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: cfg.MigrationTable})
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	source, err := iofs.New(set.FS(), ".")
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create embedded migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("create migrate instance: %w", err)
	}

	m.Log = &migrateLogger{}

	return &Runner{config: cfg, migrate: m, db: db, set: set}, nil
}

// Up applies all pending migrations.
func (r *Runner) Up() error {
	if err := r.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}

// Down rolls back the most recently applied migration.
func (r *Runner) Down() error {
	if err := r.migrate.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}

	return nil
}

// Status prints the current schema version and whether it is dirty.
func (r *Runner) Status() error {
	ver, dirty, err := r.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Println("schema status: no migrations applied")

			return nil
		}

		return fmt.Errorf("read migration version: %w", err)
	}

	log.Printf("schema status: version=%d dirty=%t highest_embedded=%d", ver, dirty, r.set.HighestSequence())

	return nil
}

// Version prints the current schema version.
func (r *Runner) Version() error {
	ver, dirty, err := r.migrate.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Println("schema version: none applied")

			return nil
		}

		return fmt.Errorf("read migration version: %w", err)
	}

	log.Printf("schema version: %d dirty=%t", ver, dirty)

	return nil
}

// Drop drops every table golang-migrate knows about. Destructive.
func (r *Runner) Drop() error {
	if err := r.migrate.Drop(); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}

	return nil
}

// Close releases the source and database connections.
func (r *Runner) Close() error {
	var errs []error

	if r.migrate != nil {
		if sourceErr, dbErr := r.migrate.Close(); sourceErr != nil || dbErr != nil {
			if sourceErr != nil {
				errs = append(errs, fmt.Errorf("close source: %w", sourceErr))
			}

			if dbErr != nil {
				errs = append(errs, fmt.Errorf("close database: %w", dbErr))
			}
		}
	}

	return errors.Join(errs...)
}

func (l *migrateLogger) Printf(format string, v ...any) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

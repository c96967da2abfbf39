// Package postgres implements store.Store against PostgreSQL using
// database/sql and lib/pq, the same pattern the teacher's
// internal/repository/postgres package uses for the campaign/suppression
// repositories: one struct per aggregate, $N placeholders, sql.ErrNoRows
// translated to a sentinel error.
package postgres

import (
	"database/sql"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/ignite/inbox-agent/internal/pkg/logger"
)

// Store implements store.Store against a single *sql.DB.
type Store struct {
	db *sql.DB
}

// Open connects to dsn, applies pending migrations from migrationsPath and
// returns a ready Store. Migrations are forward-only and run at startup
// (§6 "Persisted state layout ... migrations are forward-only and applied
// at startup").
func Open(dsn, migrationsPath string, maxOpenConns int) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if migrationsPath != "" {
		if err := applyMigrations(db, migrationsPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// NewFromDB wraps an already-open *sql.DB (used by tests with sqlmock).
func NewFromDB(db *sql.DB) *Store { return &Store{db: db} }

func applyMigrations(db *sql.DB, path string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}
	logger.Info("migrations applied", "path", path)
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// DB returns the underlying *sql.DB, for callers that need to share the
// connection pool with another component (e.g. a PostgreSQL advisory lock
// fallback when no Redis is configured).
func (s *Store) DB() *sql.DB { return s.db }

package migration

import (
	"context"

	"abkit/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the experiment store schema. Every step is
// idempotent so Run is safe on each startup.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{version: "1.0.0"}
}

// Version returns the schema version Run brings the database to.
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createSchemaVersionTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create schema_version table", err)
	}
	if err := r.createExperimentsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create experiments table", err)
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}
	if err := r.recordVersion(ctx, db); err != nil {
		return errors.DatabaseError("failed to record schema version", err)
	}
	return nil
}

func (r *MigrationRunner) createSchemaVersionTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version VARCHAR(32) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createExperimentsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS experiments (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			kind VARCHAR(20) NOT NULL CHECK (kind IN ('means', 'proportions')),
			params JSONB NOT NULL,
			input JSONB NOT NULL,
			evaluation JSONB NOT NULL,
			fingerprint VARCHAR(64) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			evaluated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_experiments_created_at ON experiments(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_experiments_fingerprint ON experiments(fingerprint)`,
		`CREATE INDEX IF NOT EXISTS idx_experiments_kind ON experiments(kind)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) recordVersion(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO schema_version (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`,
		r.version)
	return err
}

package migration

import (
	"context"

	"guildscore/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations. The DDL sticks to the subset shared by
// PostgreSQL and SQLite so the same runner serves both drivers.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createProfileSetsTable(ctx, db); err != nil {
		return errors.DatabaseError(err, "failed to create normalization_profile_sets table")
	}

	if err := r.createProfilesTable(ctx, db); err != nil {
		return errors.DatabaseError(err, "failed to create normalization_profiles table")
	}

	if err := r.createDatasetTables(ctx, db); err != nil {
		return errors.DatabaseError(err, "failed to create dataset tables")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createProfileSetsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS normalization_profile_sets (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			seed BIGINT NOT NULL,
			sample_size INTEGER NOT NULL,
			hash TEXT NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createProfilesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS normalization_profiles (
			set_id TEXT NOT NULL REFERENCES normalization_profile_sets(id) ON DELETE CASCADE,
			metric TEXT NOT NULL,
			stratum TEXT NOT NULL DEFAULT '',
			p5 DOUBLE PRECISION NOT NULL,
			p25 DOUBLE PRECISION NOT NULL,
			p50 DOUBLE PRECISION NOT NULL,
			p75 DOUBLE PRECISION NOT NULL,
			p95 DOUBLE PRECISION NOT NULL,
			zero_inflated BOOLEAN NOT NULL DEFAULT false,
			p_zero DOUBLE PRECISION NOT NULL DEFAULT 0,
			sample_size INTEGER NOT NULL,
			formula_version TEXT NOT NULL,
			PRIMARY KEY (set_id, metric, stratum)
		)
	`)
	return err
}

func (r *MigrationRunner) createDatasetTables(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
			plant_id TEXT NOT NULL,
			partner_taxon TEXT NOT NULL,
			kind TEXT NOT NULL,
			category TEXT NOT NULL,
			PRIMARY KEY (plant_id, partner_taxon, kind)
		)`,
		`CREATE TABLE IF NOT EXISTS known_mechanisms (
			target_taxon TEXT NOT NULL,
			antagonist_taxon TEXT NOT NULL,
			category TEXT NOT NULL,
			PRIMARY KEY (target_taxon, antagonist_taxon, category)
		)`,
		`CREATE TABLE IF NOT EXISTS plant_traits (
			plant_id TEXT PRIMARY KEY,
			height_m DOUBLE PRECISION,
			light_preference DOUBLE PRECISION,
			csr_c DOUBLE PRECISION,
			csr_s DOUBLE PRECISION,
			csr_r DOUBLE PRECISION,
			ph_min DOUBLE PRECISION,
			ph_max DOUBLE PRECISION,
			hardiness_min DOUBLE PRECISION,
			hardiness_max DOUBLE PRECISION
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_profile_sets_created_at ON normalization_profile_sets(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_profiles_set_id ON normalization_profiles(set_id)",
		"CREATE INDEX IF NOT EXISTS idx_interactions_partner ON interactions(partner_taxon)",
	}
	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

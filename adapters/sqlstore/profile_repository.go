// Package sqlstore persists profile sets and reference tables through sqlx. Queries are written
// with '?' placeholders and rebound per driver, so PostgreSQL and SQLite share one implementation.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"guildscore/domain/core"
	"guildscore/domain/normalization"
	"guildscore/ports"

	"github.com/jmoiron/sqlx"
)

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// profileRepository implements the ProfileRepository interface
type profileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sqlx.DB) ports.ProfileRepository {
	return &profileRepository{db: db}
}

type profileSetRow struct {
	ID         string `db:"id"`
	CreatedAt  string `db:"created_at"`
	Seed       int64  `db:"seed"`
	SampleSize int    `db:"sample_size"`
	Hash       string `db:"hash"`
}

// Save inserts a set and all its profiles in one transaction
func (r *profileRepository) Save(ctx context.Context, set *normalization.ProfileSet) error {
	if set == nil || set.ID == "" {
		return fmt.Errorf("profile set has no ID")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO normalization_profile_sets (
		id, created_at, seed, sample_size, hash
	) VALUES (?, ?, ?, ?, ?)`),
		string(set.ID), set.CreatedAt.UTC().Format(timeLayout), set.Seed, set.SampleSize, string(set.Hash),
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile set %s: %w", set.ID, err)
	}

	stmt, err := tx.PreparexContext(ctx, r.db.Rebind(`INSERT INTO normalization_profiles (
		set_id, metric, stratum, p5, p25, p50, p75, p95, zero_inflated, p_zero, sample_size, formula_version
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare profile insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range set.Profiles {
		_, err := stmt.ExecContext(ctx,
			string(set.ID), string(p.Metric), p.Stratum, p.P5, p.P25, p.P50, p.P75, p.P95,
			p.ZeroInflated, p.PZero, p.SampleSize, p.FormulaVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to insert profile %s/%s: %w", p.Metric, p.Stratum, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profile set: %w", err)
	}
	return nil
}

// Get loads a set and re-validates it, including the settings hash
func (r *profileRepository) Get(ctx context.Context, id core.ProfileSetID) (*normalization.ProfileSet, error) {
	var row profileSetRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT id, created_at, seed, sample_size, hash
		FROM normalization_profile_sets WHERE id = ?`), string(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrProfileSetNotFound, id)
		}
		return nil, fmt.Errorf("failed to get profile set: %w", err)
	}

	var profiles []normalization.NormalizationProfile
	err = r.db.SelectContext(ctx, &profiles, r.db.Rebind(`SELECT
		metric, stratum, p5, p25, p50, p75, p95, zero_inflated, p_zero, sample_size, formula_version
	FROM normalization_profiles WHERE set_id = ?
	ORDER BY metric, stratum`), string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles for set %s: %w", id, err)
	}

	createdAt, err := time.Parse(timeLayout, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("profile set %s has invalid created_at %q: %w", id, row.CreatedAt, err)
	}

	set, err := normalization.NewProfileSet(core.ProfileSetID(row.ID), createdAt, row.Seed, row.SampleSize, profiles)
	if err != nil {
		return nil, err
	}
	if string(set.Hash) != row.Hash {
		return nil, core.NewInvalidProfileError(string(id), "stored hash does not match its calibration settings")
	}
	return set, nil
}

// Latest returns the most recently created set
func (r *profileRepository) Latest(ctx context.Context) (*normalization.ProfileSet, error) {
	var id string
	err := r.db.GetContext(ctx, &id, `SELECT id FROM normalization_profile_sets
		ORDER BY created_at DESC, id DESC LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no calibration has been stored", core.ErrProfileSetNotFound)
		}
		return nil, fmt.Errorf("failed to find latest profile set: %w", err)
	}
	return r.Get(ctx, core.ProfileSetID(id))
}

// List returns set summaries, newest first
func (r *profileRepository) List(ctx context.Context, limit int) ([]ports.ProfileSetSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	type summaryRow struct {
		profileSetRow
		ProfileCount int `db:"profile_count"`
	}
	var rows []summaryRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`SELECT
		s.id, s.created_at, s.seed, s.sample_size, s.hash, COUNT(p.metric) AS profile_count
	FROM normalization_profile_sets s
	LEFT JOIN normalization_profiles p ON p.set_id = s.id
	GROUP BY s.id, s.created_at, s.seed, s.sample_size, s.hash
	ORDER BY s.created_at DESC, s.id DESC
	LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list profile sets: %w", err)
	}

	out := make([]ports.ProfileSetSummary, 0, len(rows))
	for _, row := range rows {
		createdAt, err := time.Parse(timeLayout, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("profile set %s has invalid created_at: %w", row.ID, err)
		}
		out = append(out, ports.ProfileSetSummary{
			ID:           core.ProfileSetID(row.ID),
			CreatedAt:    createdAt,
			Seed:         row.Seed,
			SampleSize:   row.SampleSize,
			Hash:         core.Hash(row.Hash),
			ProfileCount: row.ProfileCount,
		})
	}
	return out, nil
}

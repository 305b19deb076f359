package migration

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunner_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	runner := NewRunner()
	require.NoError(t, runner.Run(ctx, db))
	require.NoError(t, runner.Run(ctx, db), "migrations are idempotent")
	assert.Equal(t, "1.0.0", runner.Version())

	var tables []string
	require.NoError(t, db.SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`))
	assert.Equal(t, []string{
		"interactions", "known_mechanisms", "normalization_profile_sets", "normalization_profiles", "plant_traits",
	}, tables)
}

func TestRunner_ProfilePrimaryKey(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, NewRunner().Run(ctx, db))

	_, err := db.ExecContext(ctx, `INSERT INTO normalization_profile_sets (id, created_at, seed, sample_size, hash) VALUES ('s1', '2026-01-01T00:00:00Z', 42, 1000, 'h')`)
	require.NoError(t, err)

	insert := `INSERT INTO normalization_profiles (set_id, metric, stratum, p5, p25, p50, p75, p95, sample_size, formula_version)
		VALUES ('s1', 'm1_faith_pd', '', 1, 2, 3, 4, 5, 1000, 'v1')`
	_, err = db.ExecContext(ctx, insert)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert)
	assert.Error(t, err)
}

var _ Migrator = (*MigrationRunner)(nil)

package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"guildscore/adapters/sqlstore"
	"guildscore/domain/core"
	"guildscore/internal/config"
	"guildscore/internal/migration"
	"guildscore/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	treePath := filepath.Join(t.TempDir(), "orchard.nwk")
	require.NoError(t, os.WriteFile(treePath, []byte(testkit.OrchardNewick), 0o644))
	return &config.Config{
		Data:     config.DataConfig{TreePath: treePath},
		Database: config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"},
		Calibration: config.CalibrationConfig{
			Samples: 120, Workers: 2, Seed: 3, GuildSizeMin: 2, GuildSizeMax: 5, ZeroInflationThreshold: 0.2,
		},
		Scoring: config.ScoringConfig{HighCSRPercentile: 75, HubLimit: 5},
	}
}

func setup(t *testing.T) *Container {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, migration.NewRunner().Run(ctx, db))

	c, err := New(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, c.InitWithDatabase(ctx, db))
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.DatasetRepo.ReplaceInteractions(ctx, testkit.OrchardInteractions()))
	require.NoError(t, c.DatasetRepo.ReplaceMechanisms(ctx, testkit.OrchardMechanisms()))
	require.NoError(t, c.DatasetRepo.ReplaceTraits(ctx, testkit.OrchardTraits()))
	return c
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestContainer_CalibrateThenScore(t *testing.T) {
	ctx := context.Background()
	c := setup(t)

	_, err := c.ScoringService(ctx, "")
	assert.Error(t, err, "reference must be loaded first")

	require.NoError(t, c.LoadReference(ctx))
	assert.Equal(t, len(testkit.OrchardSpecies()), c.Tree.LeafCount())
	assert.Equal(t, len(testkit.OrchardInteractions()), c.Index.RecordCount())
	assert.Len(t, c.Traits, len(testkit.OrchardSpecies()))

	_, err = c.ScoringService(ctx, "")
	assert.ErrorIs(t, err, core.ErrProfileSetNotFound, "nothing calibrated yet")

	calibration, err := c.CalibrationService(true)
	require.NoError(t, err)
	result, err := calibration.Calibrate(ctx, c.CalibrationRequest())
	require.NoError(t, err)

	svc, err := c.ScoringService(ctx, "")
	require.NoError(t, err)
	scored, err := svc.Score(ctx, []string{testkit.Apple, testkit.Clover, testkit.Comfrey}, "")
	require.NoError(t, err)
	assert.Equal(t, result.ProfileSet.ID, scored.ProfileSetID)

	byID, err := c.ScoringService(ctx, result.ProfileSet.ID)
	require.NoError(t, err)
	assert.NotNil(t, byID)
}

func TestContainer_MalformedTreeFailsLoad(t *testing.T) {
	c := setup(t)
	require.NoError(t, os.WriteFile(c.Config.Data.TreePath, []byte("((A:1,B:2);"), 0o644))

	err := c.LoadReference(context.Background())
	assert.ErrorIs(t, err, core.ErrMalformedTree)
}

func TestContainer_DatasetSourcePrefersFiles(t *testing.T) {
	c := setup(t)
	src, err := c.DatasetSource()
	require.NoError(t, err)
	assert.Equal(t, c.DatasetRepo, src)

	c.Config.Data.TraitsPath = "traits.csv"
	src, err = c.DatasetSource()
	require.NoError(t, err)
	assert.NotEqual(t, c.DatasetRepo, src)
}

func TestContainer_EngineConfig(t *testing.T) {
	c := setup(t)
	c.Config.Scoring.HighCSRPercentile = 80
	c.Config.Scoring.HubLimit = 3

	ec := c.EngineConfig()
	assert.Equal(t, 80.0, ec.Traits.HighThreshold)
	assert.Equal(t, 3, ec.Network.HubLimit)
}

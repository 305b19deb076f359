package config

import (
	"testing"

	"guildscore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_DRIVER", "CALIBRATION_SAMPLES", "CALIBRATION_SEED", "GUILD_SIZE_MIN", "GUILD_SIZE_MAX",
		"ZERO_INFLATION_THRESHOLD", "HIGH_CSR_PERCENTILE", "HUB_LIMIT", "CALIBRATION_WORKERS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 1000, cfg.Calibration.Samples)
	assert.Equal(t, int64(42), cfg.Calibration.Seed)
	assert.Equal(t, 2, cfg.Calibration.GuildSizeMin)
	assert.Equal(t, 7, cfg.Calibration.GuildSizeMax)
	assert.Equal(t, 0.2, cfg.Calibration.ZeroInflationThreshold)
	assert.Equal(t, 75.0, cfg.Scoring.HighCSRPercentile)
	assert.Equal(t, 5, cfg.Scoring.HubLimit)
	assert.Positive(t, cfg.Calibration.Workers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TREE_PATH", "/data/tree.nwk")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("CALIBRATION_SAMPLES", "250")
	t.Setenv("CALIBRATION_SEED", "7")
	t.Setenv("GUILD_SIZE_MAX", "12")
	t.Setenv("HIGH_CSR_PERCENTILE", "80")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/tree.nwk", cfg.Data.TreePath)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 250, cfg.Calibration.Samples)
	assert.Equal(t, int64(7), cfg.Calibration.Seed)
	assert.Equal(t, 12, cfg.Calibration.GuildSizeMax)
	assert.Equal(t, 80.0, cfg.Scoring.HighCSRPercentile)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"DATABASE_DRIVER", "mysql"},
		{"CALIBRATION_SAMPLES", "0"},
		{"GUILD_SIZE_MIN", "1"},
		{"ZERO_INFLATION_THRESHOLD", "1.5"},
		{"HIGH_CSR_PERCENTILE", "100"},
		{"HUB_LIMIT", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestRequire(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(cfg.RequireDatabase()))

	cfg.Database.URL = "file::memory:"
	assert.NoError(t, cfg.RequireDatabase())
}

package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"guildscore/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data        DataConfig
	Database    DatabaseConfig
	Calibration CalibrationConfig
	Scoring     ScoringConfig
}

// DataConfig holds the locations of the reference tables
type DataConfig struct {
	TreePath         string
	InteractionsPath string
	MechanismsPath   string
	TraitsPath       string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL    string
	Driver string // postgres or sqlite
}

// CalibrationConfig controls the offline reference sample
type CalibrationConfig struct {
	Samples                int
	Workers                int
	Seed                   int64
	GuildSizeMin           int
	GuildSizeMax           int
	ZeroInflationThreshold float64
}

// ScoringConfig holds thresholds used on the online path
type ScoringConfig struct {
	HighCSRPercentile float64
	HubLimit          int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data:        *loadDataConfig(),
		Database:    *loadDatabaseConfig(),
		Calibration: *loadCalibrationConfig(),
		Scoring:     *loadScoringConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		TreePath:         getEnvOrDefault("TREE_PATH", ""),
		InteractionsPath: getEnvOrDefault("INTERACTIONS_PATH", ""),
		MechanismsPath:   getEnvOrDefault("MECHANISMS_PATH", ""),
		TraitsPath:       getEnvOrDefault("TRAITS_PATH", ""),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:    getEnvOrDefault("DATABASE_URL", ""),
		Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
	}
}

func loadCalibrationConfig() *CalibrationConfig {
	return &CalibrationConfig{
		Samples:                getEnvIntOrDefault("CALIBRATION_SAMPLES", 1000),
		Workers:                getEnvIntOrDefault("CALIBRATION_WORKERS", runtime.NumCPU()),
		Seed:                   int64(getEnvIntOrDefault("CALIBRATION_SEED", 42)),
		GuildSizeMin:           getEnvIntOrDefault("GUILD_SIZE_MIN", 2),
		GuildSizeMax:           getEnvIntOrDefault("GUILD_SIZE_MAX", 7),
		ZeroInflationThreshold: getEnvFloatOrDefault("ZERO_INFLATION_THRESHOLD", 0.2),
	}
}

func loadScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		HighCSRPercentile: getEnvFloatOrDefault("HIGH_CSR_PERCENTILE", 75),
		HubLimit:          getEnvIntOrDefault("HUB_LIMIT", 5),
	}
}

// Validate checks ranges. Paths are checked by the commands that need them.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.Database.Driver))
	}
	cal := c.Calibration
	if cal.Samples <= 0 {
		return errors.ConfigInvalid("CALIBRATION_SAMPLES must be positive")
	}
	if cal.Workers <= 0 {
		return errors.ConfigInvalid("CALIBRATION_WORKERS must be positive")
	}
	if cal.GuildSizeMin < 2 || cal.GuildSizeMax < cal.GuildSizeMin {
		return errors.ConfigInvalid(fmt.Sprintf("guild size range [%d,%d] is invalid; minimum is 2", cal.GuildSizeMin, cal.GuildSizeMax))
	}
	if cal.ZeroInflationThreshold <= 0 || cal.ZeroInflationThreshold > 1 {
		return errors.ConfigInvalid("ZERO_INFLATION_THRESHOLD must be in (0,1]")
	}
	if p := c.Scoring.HighCSRPercentile; p < 0 || p >= 100 {
		return errors.ConfigInvalid("HIGH_CSR_PERCENTILE must be in [0,100)")
	}
	if c.Scoring.HubLimit <= 0 {
		return errors.ConfigInvalid("HUB_LIMIT must be positive")
	}
	return nil
}

// RequireDatabase fails when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// Package container wires configuration, storage and the scoring engine for the commands.
package container

import (
	"context"
	"fmt"

	"guildscore/adapters/newick"
	"guildscore/adapters/rng"
	"guildscore/adapters/sqlstore"
	"guildscore/adapters/tables"
	"guildscore/app"
	"guildscore/domain/core"
	"guildscore/domain/guild"
	"guildscore/domain/normalization"
	"guildscore/domain/phylo"
	"guildscore/internal"
	"guildscore/internal/config"
	"guildscore/internal/network"
	"guildscore/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	ProfileRepo ports.ProfileRepository
	DatasetRepo ports.DatasetRepository

	// Reference data, loaded once and shared read-only
	Tree   *phylo.Tree
	Index  *network.Index
	Traits guild.TraitTable
	Engine *app.Engine
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	c.DB = db
	c.ProfileRepo = sqlstore.NewProfileRepository(db)
	c.DatasetRepo = sqlstore.NewDatasetRepository(db)
	return nil
}

// DatasetSource returns the table files when any path is configured, otherwise the database.
func (c *Container) DatasetSource() (ports.DatasetSource, error) {
	data := c.Config.Data
	if data.InteractionsPath != "" || data.MechanismsPath != "" || data.TraitsPath != "" {
		return tables.Source{
			InteractionsPath: data.InteractionsPath,
			MechanismsPath:   data.MechanismsPath,
			TraitsPath:       data.TraitsPath,
		}, nil
	}
	if c.DatasetRepo == nil {
		return nil, fmt.Errorf("no table paths configured and no database initialized")
	}
	return c.DatasetRepo, nil
}

// LoadReference reads the tree and the reference tables and builds the shared engine.
// A malformed tree or an invalid record fails here, before any guild is scored.
func (c *Container) LoadReference(ctx context.Context) error {
	if c.Config.Data.TreePath == "" {
		return fmt.Errorf("%w: TREE_PATH is not set", core.ErrMalformedTree)
	}
	tree, err := newick.Load(c.Config.Data.TreePath)
	if err != nil {
		return err
	}

	src, err := c.DatasetSource()
	if err != nil {
		return err
	}
	records, err := src.Interactions(ctx)
	if err != nil {
		return err
	}
	mechanisms, err := src.Mechanisms(ctx)
	if err != nil {
		return err
	}
	traitRows, err := src.Traits(ctx)
	if err != nil {
		return err
	}

	index, err := network.NewIndex(records, mechanisms)
	if err != nil {
		return err
	}
	traits := guild.NewTraitTable(traitRows)
	engine, err := app.NewEngine(tree, index, traits, c.EngineConfig())
	if err != nil {
		return err
	}

	c.Tree, c.Index, c.Traits, c.Engine = tree, index, traits, engine
	internal.DefaultLogger.Info("[Container] Reference loaded: %d leaves, %d records, %d mechanisms, %d trait rows",
		tree.LeafCount(), index.RecordCount(), index.MechanismCount(), len(traits))
	return nil
}

// EngineConfig applies the scoring settings to the default engine configuration.
func (c *Container) EngineConfig() app.EngineConfig {
	ec := app.DefaultEngineConfig()
	ec.Traits.HighThreshold = c.Config.Scoring.HighCSRPercentile
	ec.Network.HubLimit = c.Config.Scoring.HubLimit
	return ec
}

// ScoringService builds a scoring service over the given profile set, or the latest stored
// set when id is empty.
func (c *Container) ScoringService(ctx context.Context, id core.ProfileSetID) (*app.ScoringService, error) {
	if c.Engine == nil {
		return nil, fmt.Errorf("reference data not loaded")
	}
	if c.ProfileRepo == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var (
		set *normalization.ProfileSet
		err error
	)
	if id == "" {
		set, err = c.ProfileRepo.Latest(ctx)
	} else {
		set, err = c.ProfileRepo.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return app.NewScoringService(c.Tree, c.Index, c.Traits, set, c.EngineConfig())
}

// CalibrationService returns a service that stores into the profile repository, or a dry-run
// service when store is false.
func (c *Container) CalibrationService(store bool) (*app.CalibrationService, error) {
	if c.Engine == nil {
		return nil, fmt.Errorf("reference data not loaded")
	}
	var repo ports.ProfileRepository
	if store {
		if c.ProfileRepo == nil {
			return nil, fmt.Errorf("database not initialized")
		}
		repo = c.ProfileRepo
	}
	return app.NewCalibrationService(c.Engine, repo, rng.NewStreams()), nil
}

// CalibrationRequest fills a request from the calibration settings.
func (c *Container) CalibrationRequest() app.CalibrationRequest {
	cal := c.Config.Calibration
	return app.CalibrationRequest{
		Samples:                cal.Samples,
		Workers:                cal.Workers,
		Seed:                   cal.Seed,
		MinGuildSize:           cal.GuildSizeMin,
		MaxGuildSize:           cal.GuildSizeMax,
		ZeroInflationThreshold: cal.ZeroInflationThreshold,
	}
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

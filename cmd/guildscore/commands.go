package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"guildscore/adapters/sqlstore"
	"guildscore/adapters/tables"
	"guildscore/domain/core"
	"guildscore/internal"
	"guildscore/internal/config"
	"guildscore/internal/container"
	"guildscore/internal/errors"
	"guildscore/internal/migration"
	"guildscore/internal/network"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the profile and dataset tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			runner := migration.NewRunner()
			if err := runner.Run(cmd.Context(), c.DB); err != nil {
				return err
			}
			internal.DefaultLogger.Info("[Migrate] Schema %s applied to %s database", runner.Version(), c.Config.Database.Driver)
			return nil
		},
	}
}

func newImportCmd() *cobra.Command {
	var interactions, mechanisms, traits string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load CSV/XLSX reference tables into the database",
		Long: `Replace the stored interaction, mechanism and trait tables with the contents of the
given files. Paths default to INTERACTIONS_PATH, MECHANISMS_PATH and TRAITS_PATH; a table
whose path is empty is left untouched.

Example: guildscore import --interactions interactions.csv --traits traits.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			src := tables.Source{
				InteractionsPath: firstNonEmpty(interactions, c.Config.Data.InteractionsPath),
				MechanismsPath:   firstNonEmpty(mechanisms, c.Config.Data.MechanismsPath),
				TraitsPath:       firstNonEmpty(traits, c.Config.Data.TraitsPath),
			}
			repo := c.DatasetRepo

			if src.InteractionsPath != "" {
				records, err := src.Interactions(ctx)
				if err != nil {
					return errors.Wrapf(err, "failed to read %s", src.InteractionsPath)
				}
				// reject bad kind/category combinations before touching the table
				if _, err := network.NewIndex(records, nil); err != nil {
					return err
				}
				if err := repo.ReplaceInteractions(ctx, records); err != nil {
					return errors.DatabaseError(err, "failed to store interactions")
				}
			}
			if src.MechanismsPath != "" {
				records, err := src.Mechanisms(ctx)
				if err != nil {
					return errors.Wrapf(err, "failed to read %s", src.MechanismsPath)
				}
				if err := repo.ReplaceMechanisms(ctx, records); err != nil {
					return errors.DatabaseError(err, "failed to store mechanisms")
				}
			}
			if src.TraitsPath != "" {
				rows, err := src.Traits(ctx)
				if err != nil {
					return errors.Wrapf(err, "failed to read %s", src.TraitsPath)
				}
				if err := repo.ReplaceTraits(ctx, rows); err != nil {
					return errors.DatabaseError(err, "failed to store traits")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&interactions, "interactions", "", "Interaction table (CSV or XLSX)")
	cmd.Flags().StringVar(&mechanisms, "mechanisms", "", "Known mechanism table (CSV or XLSX)")
	cmd.Flags().StringVar(&traits, "traits", "", "Plant trait table (CSV or XLSX)")
	return cmd
}

func newCalibrateCmd() *cobra.Command {
	var (
		samples, workers int
		seed             int64
		stratumFile      string
		dryRun           bool
	)

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Build and store normalization profiles from random reference guilds",
		Long: `Draw random guilds from the species pool, compute every raw metric and store the
percentile breakpoints as a new profile set. Unset flags fall back to CALIBRATION_* settings.

Example: guildscore calibrate --samples 2000 --seed 7 --stratum-file strata.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.LoadReference(ctx); err != nil {
				return err
			}

			req := c.CalibrationRequest()
			if cmd.Flags().Changed("samples") {
				req.Samples = samples
			}
			if cmd.Flags().Changed("workers") {
				req.Workers = workers
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = seed
			}
			if stratumFile != "" {
				if req.Strata, err = tables.ReadStrata(stratumFile); err != nil {
					return err
				}
			}

			svc, err := c.CalibrationService(!dryRun)
			if err != nil {
				return err
			}
			result, err := svc.Calibrate(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().IntVar(&samples, "samples", 1000, "Reference guilds per stratum")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel evaluators (default CALIBRATION_WORKERS)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic sampling")
	cmd.Flags().StringVar(&stratumFile, "stratum-file", "", "plant_id,stratum table for stratified sampling")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the profiles without storing them")
	return cmd
}

func newProfilesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List stored profile sets, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			summaries, err := c.ProfileRepo.List(cmd.Context(), limit)
			if err != nil {
				return errors.DatabaseError(err, "failed to list profile sets")
			}
			return printJSON(summaries)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of sets to list")
	return cmd
}

func newScoreCmd() *cobra.Command {
	var stratum, profileSet string

	cmd := &cobra.Command{
		Use:   "score SPECIES...",
		Short: "Score a guild and print the JSON result",
		Long: `Score the given species as one guild against the latest stored profile set.

Example: guildscore score Malus_domestica Trifolium_repens Allium_schoenoprasum --stratum temperate`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.LoadReference(ctx); err != nil {
				return err
			}
			id, err := parseProfileSetID(profileSet)
			if err != nil {
				return err
			}
			svc, err := c.ScoringService(ctx, id)
			if err != nil {
				return err
			}
			result, err := svc.Score(ctx, args, stratum)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().StringVar(&stratum, "stratum", "", "Climate or region stratum for normalization")
	cmd.Flags().StringVar(&profileSet, "profile-set", "", "Profile set ID (default: latest)")
	return cmd
}

// openContainer loads configuration and connects the database.
func openContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, errors.DatabaseError(err, "failed to open database")
	}
	c, err := container.New(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		_ = db.Close()
		return nil, errors.DatabaseError(err, "failed to initialize repositories")
	}
	return c, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseProfileSetID(s string) (core.ProfileSetID, error) {
	if s == "" {
		return "", nil
	}
	id, err := core.ParseProfileSetID(s)
	if err != nil {
		return "", errors.InvalidInput(err.Error())
	}
	return id, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

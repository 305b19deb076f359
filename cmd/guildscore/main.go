package main

import (
	"os"

	"guildscore/internal"
	"guildscore/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		internal.DefaultLogger.Debug("[CLI] No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:           "guildscore",
		Short:         "Score plant guilds for co-planting compatibility",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newMigrateCmd(),
		newImportCmd(),
		newCalibrateCmd(),
		newProfilesCmd(),
		newScoreCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		err = errors.FromDomain(err)
		internal.DefaultLogger.Error("[%s] %v", errors.GetCode(err), err)
		os.Exit(1)
	}
}

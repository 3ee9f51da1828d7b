package cli

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Aranil/dbflow/internal/config"
	"github.com/Aranil/dbflow/internal/logger"
	"github.com/Aranil/dbflow/internal/sqlite"
	"github.com/Aranil/dbflow/pkg/dbflow"
)

// Global configuration variables
var (
	configFile  string
	appConfig   *config.Config
	configPath  string
	dbPath      string
	catalogPath string
	verbose     bool

	// fileSystem backs config, catalog, template and record file access
	fileSystem afero.Fs = afero.NewOsFs()
)

func NewRootCommand() *cobra.Command {
	dbflow.SetDriver(sqlite.DriverType())

	rootCmd := &cobra.Command{
		Use:   "dbflow",
		Short: "dbflow - spatial SQLite data access toolkit",
		Long: `dbflow manages a single-file SQLite store with geometry columns.

It provides tools for:
- Creating the catalog tables of a store
- Inspecting the reflected schema
- Fetching records with column, date and spatial filters
- Ingesting records with insert-or-skip or upsert semantics
- Rendering and running stored SQL query templates`,
		Version:       dbflow.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			appConfig, configPath, err = config.Resolve(fileSystem, configFile)
			if err != nil {
				if verbose {
					cmd.PrintErrf("Warning: Failed to load config file: %v\n", err)
				}
				appConfig, configPath = config.Default(), ""
			}

			if dbPath != "" {
				appConfig.Database.Path = dbPath
			}
			if catalogPath != "" {
				appConfig.Catalog.Path = catalogPath
			}

			level := appConfig.Logging.Level
			if verbose {
				level = "debug"
			}
			return logger.Setup(logger.Options{
				Level:  level,
				File:   appConfig.Logging.File,
				Format: appConfig.Logging.Format,
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: dbflow.yaml, searched upwards)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file path")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog file with the table definitions")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newTablesCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

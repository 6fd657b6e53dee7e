package main

import (
	"github.com/spf13/cobra"

	"github.com/mamadbah2/carbontracker/internal/catalog"
	"github.com/mamadbah2/carbontracker/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile    string
	FactorsDir string
}

// NewRootCommand creates the root command. Without a subcommand it serves HTTP.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Carbon emissions tracker",
		Long:          "Records activity-level carbon emissions and keeps per-log totals consistent.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "path to a .env file (default ./.env when present)")
	cmd.PersistentFlags().StringVar(&opts.FactorsDir, "factors-dir", "", "directory holding the four factor files (overrides FACTORS_DIR paths)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))

	return cmd
}

func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func factorSources(cfg *config.Config, opts *RootOptions) catalog.Sources {
	if opts.FactorsDir != "" {
		return catalog.SourcesIn(opts.FactorsDir)
	}
	return catalog.Sources{
		Vehicle:     cfg.Factors.VehicleFile,
		Electricity: cfg.Factors.ElectricityFile,
		Waste:       cfg.Factors.WasteFile,
		Fuel:        cfg.Factors.FuelFile,
	}
}

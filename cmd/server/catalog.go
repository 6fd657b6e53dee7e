package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/carbontracker/internal/catalog"
)

// NewCatalogCommand groups the factor catalog tooling.
func NewCatalogCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the emission factor sources",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load the four factor sources and report table sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(opts)
			if err != nil {
				return err
			}

			sizes := cat.Sizes()
			tables := make([]string, 0, len(sizes))
			for table := range sizes {
				tables = append(tables, table)
			}
			sort.Strings(tables)

			out := cmd.OutOrStdout()
			for _, table := range tables {
				fmt.Fprintf(out, "%-12s %d\n", table, sizes[table])
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the available factor keys as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := loadCatalog(opts)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cat.Listing())
		},
	})

	return cmd
}

func loadCatalog(opts *RootOptions) (*catalog.Catalog, error) {
	if opts.FactorsDir != "" {
		return catalog.Load(catalog.SourcesIn(opts.FactorsDir))
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return catalog.Load(factorSources(cfg, opts))
}

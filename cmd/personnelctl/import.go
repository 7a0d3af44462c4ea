package main

import (
	"encoding/json"
	"fmt"
	"os"

	"personnel-registry/internal/importer"

	"github.com/spf13/cobra"
)

type importOptions struct {
	strictDates bool
	uppercase   bool
	layout      string
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import a spreadsheet of personnel records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			cfg, repo, err := openRepository(ctx, root)
			if err != nil {
				return err
			}
			defer repo.Close(ctx)

			importOpts := importer.OptionsFromConfig(cfg)
			if cmd.Flags().Changed("strict-dates") {
				importOpts.StrictDates = opts.strictDates
			}
			if cmd.Flags().Changed("uppercase-names") {
				importOpts.UppercaseNames = opts.uppercase
			}
			if opts.layout != "" {
				importOpts.Layout = opts.layout
			}

			im, err := importer.New(repo, importOpts)
			if err != nil {
				return err
			}

			report, err := im.ImportFile(ctx, data)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().BoolVar(&opts.strictDates, "strict-dates", false, "Skip rows whose Valid Upto cannot be parsed")
	cmd.Flags().BoolVar(&opts.uppercase, "uppercase-names", false, "Store names upper cased")
	cmd.Flags().StringVar(&opts.layout, "layout", "", "Sheet layout: associative or positional (default from config)")

	return cmd
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"personnel-registry/internal/model"
	"personnel-registry/internal/registry"

	"github.com/spf13/cobra"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record as a JSON array, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			_, repo, err := openRepository(ctx, root)
			if err != nil {
				return err
			}
			defer repo.Close(ctx)

			records, err := repo.FindAll(ctx)
			if err != nil {
				return err
			}
			if records == nil {
				records = []model.Record{}
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(records); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records\n", len(records))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newRestoreCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file.json>",
		Short: "Insert records from an export in one batch",
		Long: "Insert records from an export in one batch. Ids and timestamps are reassigned, " +
			"and fields are normalized the way imports normalize them. Records without an identity are skipped.\n\n" +
			"If a record collides with a stored identity the restore fails. With the memory and mysql drivers " +
			"nothing is written; with mongodb the records inserted before the collision are kept.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var records []model.Record
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("failed to decode %s: %w", args[0], err)
			}

			cfg, repo, err := openRepository(ctx, root)
			if err != nil {
				return err
			}
			defer repo.Close(ctx)

			svc := registry.NewService(repo, registry.Options{UppercaseNames: cfg.Import.UppercaseNames})

			// Exports are newest first; restoring oldest first keeps that order.
			batch := make([]*model.Record, 0, len(records))
			for i := len(records) - 1; i >= 0; i-- {
				rec := svc.Normalize(records[i])
				rec.ID = ""
				if !rec.HasIdentity() {
					continue
				}
				batch = append(batch, &rec)
			}

			if err := repo.InsertMany(ctx, batch); err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d of %d records\n", len(batch), len(records))
			return nil
		},
	}
}

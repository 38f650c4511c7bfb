package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/app"
	"github.com/Ramsey-B/fern/pkg/models"
)

func inspectCmd() *cobra.Command {
	var skip, limit int
	var id string

	cmd := &cobra.Command{
		Use:   "inspect [collection]",
		Short: "Print stored link keys and dangling references of a collection",
		Long: `Print the stored link keys of a collection and whether each still
resolves. With no collection the inspectable collections are listed.

Examples:
  fern inspect
  fern inspect deals --limit 20
  fern inspect deals --id 6f1c...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			stores, _, closeStores, err := app.OpenStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeStores()

			svc := app.NewInspectService(logger, stores)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if len(args) == 0 {
				return enc.Encode(svc.Collections())
			}
			if id != "" {
				report, err := svc.Record(cmd.Context(), args[0], id)
				if err != nil {
					return fmt.Errorf("inspect %s/%s: %w", args[0], id, err)
				}
				return enc.Encode(report)
			}
			report, err := svc.Links(cmd.Context(), args[0], models.ListRequest{Skip: skip, Limit: limit})
			if err != nil {
				return fmt.Errorf("inspect %s: %w", args[0], err)
			}
			return enc.Encode(report)
		},
	}

	cmd.Flags().IntVar(&skip, "skip", 0, "records to skip")
	cmd.Flags().IntVar(&limit, "limit", 100, "records to report")
	cmd.Flags().StringVar(&id, "id", "", "inspect one record instead of the collection")
	return cmd
}

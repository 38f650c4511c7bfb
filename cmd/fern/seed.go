package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/app"
)

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create companies, people and deals from a YAML fixture file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			fixtures, err := app.LoadFixtures(file)
			if err != nil {
				return err
			}

			stores, db, closeStores, err := app.OpenStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeStores()

			result, err := app.Seed(cmd.Context(), logger, stores, db, fixtures)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "db/fixtures/seed.yaml", "fixture file")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/legioncodex100/legion-finance-app-v2-sub001/internal/cli"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// initStorage migrates as part of opening the database.
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStorage(store)

			fmt.Println(cli.SuccessStyle.Render("Database is up to date.")) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

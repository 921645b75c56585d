package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jobscout/jobscout/pkg/repository"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepositories(cmd, func(ctx context.Context, repos *repository.Set) error {
				if repos.DB == nil {
					return errors.New("migrate needs a database; unset USE_MEMORY_STORE")
				}
				if err := repos.DB.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema applied")
				return nil
			})
		},
	}
}

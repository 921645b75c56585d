package main

import (
	"context"
	"fmt"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/logger"
	"github.com/jobscout/jobscout/pkg/quota"
	"github.com/jobscout/jobscout/pkg/repository"
	"github.com/spf13/cobra"
)

func newUsageCmd(a *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "usage <user-id>",
		Short: "Print a user's prompt usage for the current month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRepositories(cmd, func(ctx context.Context, repos *repository.Set) error {
				tracker := quota.NewTracker(repos.Prompts, a.cfg.FreePromptLimit, domain.SystemClock{}, logger.NewNop())
				usage, err := tracker.Snapshot(ctx, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "User:       %s\n", args[0])
				fmt.Fprintf(out, "Used:       %d\n", usage.Used)
				if usage.Limit == nil {
					fmt.Fprintln(out, "Limit:      unlimited")
				} else {
					fmt.Fprintf(out, "Limit:      %d\n", *usage.Limit)
					fmt.Fprintf(out, "Remaining:  %d\n", usage.Remaining())
				}
				fmt.Fprintf(out, "Can create: %t\n", usage.CanCreate)
				return nil
			})
		},
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/jobs"
	"github.com/jobscout/jobscout/pkg/repository"
	"github.com/spf13/cobra"
)

func newReapCmd(a *cli) *cobra.Command {
	var after time.Duration

	cmd := &cobra.Command{
		Use:   "reap",
		Short: "Settle prompts stuck in processing",
		Long: `Settles prompts that have been processing longer than --after. Prompts
with stored content are completed, the rest are marked failed.
The API runs the same job on STALE_PROMPT_SCHEDULE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if after == 0 {
				after = a.cfg.StalePromptAfter
			}
			return a.withRepositories(cmd, func(ctx context.Context, repos *repository.Set) error {
				reaper := jobs.NewStaleReaper(repos.Prompts, after, domain.SystemClock{}, log.New(cmd.ErrOrStderr(), "", log.LstdFlags))
				res, err := reaper.Run(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Completed %d and failed %d stale prompts\n", res.Completed, res.Failed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&after, "after", 0, "stale window (default STALE_PROMPT_AFTER)")
	return cmd
}

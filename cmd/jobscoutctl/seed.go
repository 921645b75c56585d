package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/repository"
	"github.com/jobscout/jobscout/pkg/testdata"
	"github.com/jobscout/jobscout/pkg/users"
	"github.com/spf13/cobra"
)

func newSeedCmd(a *cli) *cobra.Command {
	var (
		count int
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "seed <user-id> <email>",
		Short: "Insert fake completed prompts for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a production store")
			}
			return a.withRepositories(cmd, func(ctx context.Context, repos *repository.Set) error {
				n, err := seedPrompts(ctx, repos, users.Identity{ID: args[0], Email: args[1]}, count, testdata.New(seed))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d prompts for %s\n", n, args[0])
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 3, "number of prompts")
	cmd.Flags().Int64Var(&seed, "seed", 0, "faker seed (0 for random)")
	return cmd
}

func seedPrompts(ctx context.Context, repos *repository.Set, id users.Identity, count int, fk *testdata.Faker) (int, error) {
	if _, err := users.NewProvisioner(repos.Users, nil).Ensure(ctx, id); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	for i := 0; i < count; i++ {
		p := fk.Prompt(id.ID, domain.PromptStatusPending, now.Add(-time.Duration(i)*time.Minute))
		if err := repos.Prompts.Create(ctx, p); err != nil {
			return i, err
		}
		for _, status := range []domain.PromptStatus{domain.PromptStatusProcessing, domain.PromptStatusCompleted} {
			if err := repos.Prompts.UpdateStatus(ctx, p.ID, status); err != nil {
				return i, err
			}
		}
		if err := repos.Contents.Create(ctx, fk.Content(p)); err != nil {
			return i, err
		}
	}
	return count, nil
}

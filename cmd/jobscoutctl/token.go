package main

import (
	"fmt"
	"time"

	"github.com/jobscout/jobscout/pkg/auth"
	"github.com/spf13/cobra"
)

func newTokenCmd(a *cli) *cobra.Command {
	var (
		name string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id> <email>",
		Short: "Mint an identity token for local development",
		Long: `Signs a token with AUTH_JWT_SECRET carrying the same claims the
identity provider issues. Refuses to run in production.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.IsProduction() {
				return fmt.Errorf("refusing to mint tokens in production")
			}
			token, err := auth.GenerateToken(args[0], args[1], name, a.cfg.AuthJWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

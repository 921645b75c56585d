package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jobscout/jobscout/config"
	"github.com/jobscout/jobscout/pkg/database"
	"github.com/jobscout/jobscout/pkg/repository"
	"github.com/spf13/cobra"
)

// opener connects to the configured store
type opener func(ctx context.Context, cfg *config.Config) (*repository.Set, error)

func openRepositories(ctx context.Context, cfg *config.Config) (*repository.Set, error) {
	if cfg.UseMemoryStore {
		return repository.NewMemory(), nil
	}
	db, err := database.Open(ctx, database.Options{
		URL: cfg.DatabaseURL,
		TLS: database.TLS{
			Mode:     cfg.DBSSLMode,
			Cert:     cfg.DBSSLCertPath,
			Key:      cfg.DBSSLKeyPath,
			RootCert: cfg.DBSSLRootCertPath,
		},
		Pool: database.Pool{MaxOpen: 2, MaxIdle: 1, MaxLifetime: time.Minute},
	})
	if err != nil {
		return nil, err
	}
	return repository.NewPostgres(db), nil
}

// cli carries what every subcommand needs
type cli struct {
	cfg     *config.Config
	open    opener
	timeout time.Duration
}

func (a *cli) withRepositories(cmd *cobra.Command, fn func(ctx context.Context, repos *repository.Set) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	repos, err := a.open(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer repos.Close()

	return fn(ctx, repos)
}

func newRootCmd(cfg *config.Config, open opener) *cobra.Command {
	a := &cli{cfg: cfg, open: open}

	root := &cobra.Command{
		Use:   "jobscoutctl",
		Short: "Operator tasks for the JobScout API",
		Long: `jobscoutctl applies the schema, runs maintenance jobs and inspects usage.

It reads the same environment (and .env file) as the API server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.LoadSecrets(cmd.Context(), cfg)
		},
	}
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 30*time.Second, "deadline for the whole command")

	root.AddCommand(
		newMigrateCmd(a),
		newReapCmd(a),
		newUsageCmd(a),
		newTokenCmd(a),
		newSeedCmd(a),
	)
	return root
}

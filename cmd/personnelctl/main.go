package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"personnel-registry/internal/config"
	"personnel-registry/internal/db"
	"personnel-registry/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	driver string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "personnelctl",
		Short:         "Maintain the personnel registry from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "Database driver override: mongo, mysql or memory")

	cmd.AddCommand(newImportCmd(&opts))
	cmd.AddCommand(newExportCmd(&opts))
	cmd.AddCommand(newRestoreCmd(&opts))
	return cmd
}

// openRepository loads configuration and connects to the configured store.
func openRepository(ctx context.Context, opts *rootOptions) (*config.Config, db.Repository, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if opts.driver != "" {
		cfg.Database.Driver = opts.driver
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}

	logger.Init(cfg.Logging.Level, "console")

	openCtx, cancel := context.WithTimeout(ctx, cfg.Database.Mongo.Timeout)
	defer cancel()

	repo, err := db.Open(openCtx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PrepareSchema(openCtx, repo, logger.Component("schema")); err != nil {
		repo.Close(ctx)
		return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return cfg, repo, nil
}

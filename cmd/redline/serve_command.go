package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"redline/internal/api"
	"redline/internal/bootstrap"
	"redline/internal/logging"
	"redline/internal/review"
	"redline/internal/schema"
	"redline/internal/store"
)

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine: bootstrap migrations, then the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			lock := flock.New(cfg.LockFilePath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !locked {
				return errors.New("another redline instance is already running")
			}
			defer lock.Unlock() //nolint:errcheck

			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			registry, err := schema.FromConfig(cfg.Models)
			if err != nil {
				return fmt.Errorf("load schema registry: %w", err)
			}

			service := review.NewService(cfg, st, registry, logger)

			runner := bootstrap.NewRunner(cfg, st, registry, service, logger)
			if err := runner.Run(ctx); err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}

			server, err := api.NewServer(cfg, service, logger)
			if err != nil {
				return fmt.Errorf("create api server: %w", err)
			}

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				if server == nil {
					return nil
				}
				if err := server.Start(groupCtx); err != nil {
					return err
				}
				<-groupCtx.Done()
				server.Stop()
				return nil
			})

			logger.Info("redline running",
				slog.String("database", st.Path()),
				slog.String("bind", cfg.API.Bind))

			if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("redline shutting down")
			return nil
		},
	}
}

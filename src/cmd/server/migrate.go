package main

import (
	"context"
	"fmt"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/adapter/repository/postgres"
	"github.com/api-sage/payment-reversal-engine/src/internal/config"
	"github.com/api-sage/payment-reversal-engine/src/internal/logger"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logger.Init(cfg.Env); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return migrate(ctx, cfg)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "time allowed for all migrations")
	return cmd
}

func migrate(ctx context.Context, cfg config.Config) error {
	db, err := postgres.Open(ctx, cfg.DatabaseDSN, cfg.DatabasePool)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := postgres.RunMigrations(ctx, db, cfg.MigrationsDir)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations completed", logger.Fields{"applied": applied, "dir": cfg.MigrationsDir})
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/attend/internal/config"
	"github.com/Togather-Foundation/attend/internal/storage/postgres"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run one reminder dispatch pass",
	Long: `Find events starting within the reminder window, send a reminder email to
each attendee that has not been reminded yet, and exit.

The serve command runs the same dispatch on a schedule; this command exists
for cron setups and manual catch-up runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemind(cmd.Context())
	},
}

func runRemind(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger := config.NewLogger(cfg.Logging)

	poolCtx, poolCancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := postgres.Connect(poolCtx, cfg.Database)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	dispatcher, err := newReminderDispatcher(cfg, postgres.NewRepository(pool), logger)
	if err != nil {
		return err
	}

	stats, err := dispatcher.Run(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reminder dispatch failed: %w", err)
	}
	if stats.Failed > 0 {
		return fmt.Errorf("reminder dispatch finished with %d failures", stats.Failed)
	}
	return nil
}

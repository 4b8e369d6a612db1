package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/attend/internal/api"
	"github.com/Togather-Foundation/attend/internal/config"
	"github.com/Togather-Foundation/attend/internal/domain/users"
	"github.com/Togather-Foundation/attend/internal/email"
	"github.com/Togather-Foundation/attend/internal/jobs"
	"github.com/Togather-Foundation/attend/internal/metrics"
	"github.com/Togather-Foundation/attend/internal/storage/postgres"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables
- Bootstrap a first user if BOOTSTRAP_* env vars are set
- Start the background reminder dispatcher
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting attend server")

	metrics.AppInfo.WithLabelValues(Version, GitCommit, BuildDate).Set(1)

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.Connect(poolCtx, cfg.Database)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo := postgres.NewRepository(pool)

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapUser(bootstrapCtx, cfg, repo, logger); err != nil {
		logger.Error().Err(err).Msg("user bootstrap failed")
	}
	bootstrapCancel()

	// Database metrics collector (collect every 15 seconds)
	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	defer collectorCancel()
	go metrics.NewDBCollector(pool).Start(collectorCtx, 15*time.Second)

	riverClient, err := newRiverClient(cfg, pool, repo, logger)
	if err != nil {
		return fmt.Errorf("river setup failed: %w", err)
	}

	riverCtx, riverCancel := context.WithCancel(context.Background())
	defer riverCancel()
	if err := riverClient.Start(riverCtx); err != nil {
		return fmt.Errorf("river workers failed to start: %w", err)
	}
	logger.Info().Msg("river background job workers started")
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			logger.Error().Err(err).Msg("river workers shutdown error")
		} else {
			logger.Info().Msg("river workers stopped")
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(cfg, logger, pool, Version),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func newReminderDispatcher(cfg config.Config, repo *postgres.Repository, logger zerolog.Logger) (*jobs.ReminderDispatcher, error) {
	sender, err := email.NewService(cfg.Email, logger)
	if err != nil {
		return nil, fmt.Errorf("email setup failed: %w", err)
	}
	return jobs.NewReminderDispatcher(repo.Reminders(), sender, logger, cfg.Jobs.ReminderWindow, cfg.Jobs.ReminderConcurrency), nil
}

func newRiverClient(cfg config.Config, pool *pgxpool.Pool, repo *postgres.Repository, logger zerolog.Logger) (*river.Client[pgx.Tx], error) {
	dispatcher, err := newReminderDispatcher(cfg, repo, logger)
	if err != nil {
		return nil, err
	}

	workers, err := jobs.NewWorkers(dispatcher)
	if err != nil {
		return nil, fmt.Errorf("worker registration failed: %w", err)
	}

	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	hooks := []rivertype.Hook{metrics.NewRiverMetricsHook()}
	return jobs.NewClient(pool, workers, slogLogger, hooks, jobs.NewPeriodicJobs(cfg.Jobs.ReminderInterval))
}

func bootstrapUser(ctx context.Context, cfg config.Config, repo *postgres.Repository, logger zerolog.Logger) error {
	bootstrap := cfg.Bootstrap
	if bootstrap.Email == "" || bootstrap.Password == "" {
		logger.Debug().Msg("bootstrap env vars not set; skipping")
		return nil
	}

	// exists-check plus insert in one transaction so concurrent starts
	// cannot both create the user
	var user *users.User
	err := repo.WithTx(ctx, func(ctx context.Context, txRepo *postgres.Repository) error {
		service := users.NewService(txRepo.Users(), txRepo.Tokens(), cfg.Auth.TokenExpiry, logger)
		created, err := service.Bootstrap(ctx, bootstrap.Name, bootstrap.Email, bootstrap.Password)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return err
	}
	// redact email in production to avoid PII leaks
	if cfg.Environment == "production" {
		logger.Info().Str("user_id", user.ULID).Msg("bootstrap user ready")
	} else {
		logger.Info().Str("email", bootstrap.Email).Msg("bootstrap user ready")
	}
	return nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}

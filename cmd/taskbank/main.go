package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hqhub/taskbank/internal/config"
	"github.com/hqhub/taskbank/internal/database"
	"github.com/hqhub/taskbank/internal/handler"
	"github.com/hqhub/taskbank/internal/jobs"
	"github.com/hqhub/taskbank/internal/logger"
)

func main() {
	app := &cli.App{
		Name:  "taskbank",
		Usage: "Internal currency ledger and reputation-scored task marketplace",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Aliases:  []string{"d"},
				Value:    config.DefaultDatabaseURL,
				Usage:    "PostgreSQL database URL",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server with the background window sweeper",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
				},
				Action: runServe,
			},
			{
				Name:   "sweep",
				Usage:  "Run one sweep of expired application windows and exit",
				Action: runSweep,
			},
			{
				Name:   "sweep-daemon",
				Usage:  "Run the window sweeper on its cron schedule without the web server",
				Action: runSweepDaemon,
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.New(c.Context, c.String("database-url"), cfg.DBMinConns, cfg.DBMaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(c.Context, db.Pool()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return cfg, db, nil
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	cfg, db, err := setup(c)
	if err != nil {
		return err
	}
	defer db.Close()

	h := handler.New(db.Pool(), cfg)

	scheduler, err := jobs.NewScheduler(h.Sweeper(), cfg.SweepSchedule)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runSweep(c *cli.Context) error {
	cfg, db, err := setup(c)
	if err != nil {
		return err
	}
	defer db.Close()

	h := handler.New(db.Pool(), cfg)

	report, err := h.Sweeper().Sweep(c.Context)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	slog.Info("sweep finished",
		"processed", report.Processed,
		"assigned", report.Assigned,
		"skipped_no_applicants", report.SkippedNoApplicants,
	)
	return nil
}

func runSweepDaemon(c *cli.Context) error {
	cfg, db, err := setup(c)
	if err != nil {
		return err
	}
	defer db.Close()

	h := handler.New(db.Pool(), cfg)

	scheduler, err := jobs.NewScheduler(h.Sweeper(), cfg.SweepSchedule)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	slog.Info("stopping sweep daemon")
	return nil
}

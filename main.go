package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/pgx-report-api/config"
	"github.com/giygas/pgx-report-api/data"
	"github.com/giygas/pgx-report-api/handlers"
	"github.com/giygas/pgx-report-api/health"
	"github.com/giygas/pgx-report-api/ingest"
	"github.com/giygas/pgx-report-api/loader"
	"github.com/giygas/pgx-report-api/logging"
	"github.com/giygas/pgx-report-api/reportparser"
	"github.com/giygas/pgx-report-api/scheduler"
	"github.com/giygas/pgx-report-api/server"
	"github.com/giygas/pgx-report-api/validation"
	"github.com/joho/godotenv"
)

// application holds the wired components of the service
type application struct {
	store     *data.ReportContainer
	scheduler *scheduler.Scheduler
	server    *server.Server
}

func newApplication(cfg *config.Config) (*application, error) {
	sorter, err := reportparser.NewSorter(cfg.SortLocale)
	if err != nil {
		return nil, err
	}

	store := data.NewReportContainer(sorter)
	store.SetServerStartTime(time.Now())

	validator := validation.NewDataValidator()
	pipeline := ingest.NewPipeline(store, reportparser.NewReportParser(), validator)
	reportLoader := loader.NewReportLoader(cfg.DefaultReportSource, cfg.FetchTimeout, cfg.MaxRequestBody)
	sched := scheduler.NewScheduler(store, reportLoader, pipeline, cfg.RefreshTimes, cfg.FetchTimeout)

	var reloader handlers.Reloader
	if cfg.DefaultReportSource != "" {
		reloader = sched
	}

	handler := handlers.NewHTTPHandler(
		store,
		validator,
		reportLoader,
		pipeline,
		reloader,
		health.NewHealthChecker(store, sched, cfg.DefaultReportSource),
	)

	rateLimits, err := server.LoadRateLimitConfig(cfg.RateLimitFile)
	if err != nil {
		return nil, err
	}

	return &application{
		store:     store,
		scheduler: sched,
		server:    server.NewServer(cfg, handler, server.NewRateLimiter(rateLimits)),
	}, nil
}

func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	// No .env in the working directory, try next to the executable
	ex, err := os.Executable()
	if err != nil {
		return
	}
	if err := godotenv.Load(filepath.Join(filepath.Dir(ex), ".env")); err == nil {
		if err := os.Chdir(filepath.Dir(ex)); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to change directory:", err)
		}
	}
}

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Configuration error:", err)
		os.Exit(1)
	}

	logging.InitLogger(logging.Options{
		Dir:            "logs",
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})

	if err := run(cfg); err != nil {
		logging.Error("Service stopped with error", "error", err)
		_ = logging.Close()
		os.Exit(1)
	}

	_ = logging.Close()
}

func run(cfg *config.Config) error {
	app, err := newApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up the service: %w", err)
	}

	if err := app.scheduler.Start(); err != nil {
		return err
	}
	defer app.scheduler.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case sig := <-quit:
		logging.Info("Received signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return app.server.Shutdown(ctx)
}

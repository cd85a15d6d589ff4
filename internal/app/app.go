// Package app wires configuration, logging, storage and the outer
// surfaces into a runnable service.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"recorder/internal/adapter/httpapi"
	"recorder/internal/adapter/scheduler"
	"recorder/internal/config"
	"recorder/internal/platform/logger"
	"recorder/internal/recorder"
)

const migrationsPath = "file://migrations/sqlite"

// App wires application components.
type App struct {
	cfg config.Config
	log *slog.Logger
}

// New loads configuration and builds the logger.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "recorder",
	})
	return &App{cfg: cfg, log: log}, nil
}

// Run opens the database, schedules the nightly purge and serves the
// status API until interrupted.
func (a *App) Run() error {
	defer func() { _ = logger.Close(a.log) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec, err := recorder.Open(ctx, recorder.Config{
		URL:            a.cfg.Database.URL,
		MigrationsPath: migrationsPath,
		Logger:         a.log,
	})
	if err != nil {
		a.log.Error("database startup failed", "error", err)
		return err
	}

	sched := scheduler.New(ctx, a.log)
	_, err = sched.AddJob(a.cfg.Retention.PurgeCron, "purge", func(ctx context.Context) error {
		rec.Purge(ctx, a.cfg.Retention.Days)
		return nil
	})
	if err != nil {
		_ = rec.Close(ctx)
		return err
	}
	sched.Start()

	srv := &http.Server{
		Addr:    a.cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(rec, a.log),
	}
	go func() {
		a.log.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("http server", "error", err)
		}
	}()

	<-ctx.Done()
	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown", "error", err)
	}
	sched.Stop()

	return rec.Close(shutdownCtx)
}

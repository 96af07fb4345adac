package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/spf13/cobra"

	"campus-parking-backend/internal/api"
	"campus-parking-backend/internal/contact"
	"campus-parking-backend/internal/db"
	"campus-parking-backend/internal/notification"
	"campus-parking-backend/internal/reconcile"
	"campus-parking-backend/internal/reservation"
	"campus-parking-backend/internal/store"
)

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close(gormDB)
	slog.Info("database initialized", "driver", cfg.Database.Driver)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Seed.OnStartup {
		n, err := db.Seed(ctx, gormDB, cfg.Seed)
		if err != nil {
			return fmt.Errorf("seeding slots: %w", err)
		}
		slog.Info("slots seeded", "inserted", n)
	}

	appStore := store.NewGormStore(gormDB)

	channels := notification.Channels(cfg.Alerts, appStore)
	pool := notification.NewWorkerPool(cfg.Alerts.WorkerPoolSize, cfg.Alerts.QueueSize, channels...)
	pool.Start(ctx)
	alerter := notification.NewAlerter(appStore, pool)
	slog.Info("alert workers started", "workers", cfg.Alerts.WorkerPoolSize, "channels", len(channels))

	reserver := reservation.NewService(cfg.Reservation, appStore, alerter)
	intake := contact.NewIntake(appStore)

	reconciler := reconcile.NewService(cfg.Reconcile, appStore, alerter)
	go func() {
		if err := reconciler.Run(ctx); err != nil {
			slog.Error("reconciler stopped", "error", err)
		}
	}()

	handler := api.NewHandler(appStore, reserver, intake, notification.WebPushOptions(cfg.Alerts.Push))
	router := api.NewRouter(cfg.Server, handler)
	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.CORSAllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      cors(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server ListenAndServe: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping services")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}

	slog.Info("server gracefully stopped")
	return nil
}

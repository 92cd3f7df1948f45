// Package server initializes and runs the API server: it wires the
// repositories, the payments client and the HTTP surface, and handles
// graceful shutdown.
package server

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

	"github.com/aleksvolk/connectboard/internal/logging"
	"github.com/aleksvolk/connectboard/internal/server/config"
	"github.com/aleksvolk/connectboard/internal/server/httpapi"
	"github.com/aleksvolk/connectboard/internal/server/payments"
	settingsrepo "github.com/aleksvolk/connectboard/internal/server/repositories/settings"
	usersrepo "github.com/aleksvolk/connectboard/internal/server/repositories/users"
	"github.com/aleksvolk/connectboard/internal/server/services"
	"github.com/aleksvolk/connectboard/internal/server/shared/db"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	api     *httpapi.Server
	cleanup func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	var (
		settingsRepo settingsrepo.Repository
		usersRepo    usersrepo.Repository
		databaseSvc  *services.DatabaseService
		cleanup      = func() error { return nil }
	)

	if cfg.InMemory {
		settingsRepo = settingsrepo.NewMemoryRepository()
		usersRepo = usersrepo.NewMemoryRepository()
	} else {
		manager, err := db.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		settingsRepo = manager.Settings()
		usersRepo = manager.Users()
		databaseSvc = services.NewDatabaseService(manager.Conn(), logger)
		cleanup = manager.Close
	}

	paymentsClient := payments.NewHTTPClient(cfg.PaymentsEndpoint)

	settingsSvc := services.NewSettingsService(settingsRepo, logger)
	provisioningSvc := services.NewProvisioningService(
		usersRepo, settingsRepo, paymentsClient, cfg.BaseURL, cfg.DefaultCountry, logger)
	usersSvc := services.NewUsersService(usersRepo)

	api := httpapi.NewServer(settingsSvc, provisioningSvc, usersSvc, databaseSvc, logger)

	return &App{config: cfg, logger: logger, api: api, cleanup: cleanup}, nil
}

// Run serves the API until ctx is cancelled or a termination signal
// arrives, then shuts the HTTP server down gracefully.
func (app *App) Run(ctx context.Context) error {

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	srv := &http.Server{
		Addr:    app.config.HTTPAddr,
		Handler: app.api.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server", "addr", app.config.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		_ = app.cleanup()
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if cerr := app.cleanup(); err == nil {
		err = cerr
	}
	return err
}

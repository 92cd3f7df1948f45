// Package cli is the interactive control panel: a REPL over the settings
// synchronizer and the flow dispatcher.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"

	"github.com/aleksvolk/connectboard/internal/client/api"
	"github.com/aleksvolk/connectboard/internal/client/cache"
	"github.com/aleksvolk/connectboard/internal/client/config"
	"github.com/aleksvolk/connectboard/internal/client/flow"
	clientsync "github.com/aleksvolk/connectboard/internal/client/sync"
	"github.com/aleksvolk/connectboard/internal/logging"
)

type App struct {
	config       *config.Config
	client       *api.Client
	synchronizer *clientsync.Synchronizer
	dispatcher   *flow.Dispatcher
	db           *sql.DB
	reader       *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	store, db, err := cache.Open(ctx, c.CachePath)
	if err != nil {
		log.Printf("error initializing cache database: %s", err.Error())
		return nil, err
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	apiClient := api.New(c.ServerBaseURL, c.UserID)

	synchronizer := clientsync.NewSynchronizer(apiClient, store, c.SaveDebounce, c.VerifyDebounce, logger)
	dispatcher := flow.NewDispatcher(apiClient)
	synchronizer.Subscribe(dispatcher.Apply)

	return &App{
		config:       c,
		client:       apiClient,
		synchronizer: synchronizer,
		dispatcher:   dispatcher,
		db:           db,
		reader:       bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()
	defer a.synchronizer.Close()

	if err := a.synchronizer.Init(ctx); err != nil {
		return err
	}

	a.Root(ctx)
	return nil
}

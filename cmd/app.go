package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/pmarks/pinbook/internal/bookmark"
	"github.com/pmarks/pinbook/internal/config"
	"github.com/pmarks/pinbook/internal/db"
	"github.com/pmarks/pinbook/internal/pinboard"
	"github.com/pmarks/pinbook/internal/query"
	"github.com/pmarks/pinbook/internal/store"
	"github.com/pmarks/pinbook/internal/updater"
)

// EnvToken overrides the stored auth token, so scripts and .env files can
// run without a login step.
const EnvToken = "PINBOOK_TOKEN"

// app wires config, database, store, remote client and sync engine
// together for the duration of one command.
type app struct {
	cfg     *config.Config
	state   *config.State
	logger  *slog.Logger
	db      *db.SQLite
	store   *store.Store
	client  *pinboard.Client
	updater *updater.Updater
}

// envSettings layers the token environment override on top of the
// persisted state.
type envSettings struct {
	*config.State
}

func (e envSettings) Token() string {
	if tok := os.Getenv(EnvToken); tok != "" {
		return tok
	}

	return e.State.Token()
}

func initApp(ctx context.Context) (*app, error) {
	dataDir := dataDirFlag
	if dataDir == "" {
		var err error
		if dataDir, err = config.DataDir(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	state, err := config.OpenState(cfg.StatePath())
	if err != nil {
		return nil, err
	}

	database, err := db.Open(ctx, cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := store.New(database)
	client := pinboard.NewClient(
		&http.Client{Timeout: 30 * time.Second},
		logger,
		pinboard.WithBaseURL(cfg.APIURL),
	)
	u := updater.New(s, client, envSettings{state}, logger,
		updater.WithInterval(time.Duration(cfg.SyncInterval)))

	return &app{
		cfg:     cfg,
		state:   state,
		logger:  logger,
		db:      database,
		store:   s,
		client:  client,
		updater: u,
	}, nil
}

func (a *app) close() {
	a.store.Close()
	a.db.Close()
}

// fetchBookmarks runs a query and fills in the tag sets the bulk read
// leaves empty.
func (a *app) fetchBookmarks(ctx context.Context, q query.Query, limit int) ([]*bookmark.Bookmark, error) {
	bs, err := a.store.Bookmarks(ctx, q, limit)
	if err != nil {
		return nil, err
	}

	for i, b := range bs {
		full, err := a.store.Bookmark(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		bs[i] = full
	}

	return bs, nil
}

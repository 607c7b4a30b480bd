package cli

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alynder/warchest/internal/config"
	"github.com/alynder/warchest/internal/engine"
	"github.com/alynder/warchest/internal/source"
	"github.com/alynder/warchest/internal/store"
)

// app bundles the wired components a command operates on.
type app struct {
	cfg   *config.Config
	store *store.Store
	eng   *engine.Reconciler
}

// openApp loads configuration and wires store, source, and engine.
// The caller must Close the returned app.
func openApp(opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	client := source.NewClient(
		cfg.API.Host,
		cfg.Credentials(),
		source.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.API.Timeout)}),
	)

	eng := engine.New(st, client, cfg.Rules(), cfg.Scopes())

	return &app{cfg: cfg, store: st, eng: eng}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

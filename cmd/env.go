package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/skycast-labs/forecast-cli/internal/owm"
	"github.com/skycast-labs/forecast-cli/internal/provider"
	"github.com/skycast-labs/forecast-cli/internal/store"
	"github.com/skycast-labs/forecast-cli/internal/syncer"
)

// appEnv holds the initialized store, provider, and orchestrator shared by
// the sync/daemon/serve commands.
type appEnv struct {
	Store        *store.SQLiteStore
	Provider     *provider.Provider
	Orchestrator *syncer.Orchestrator
}

// Close releases resources held by the environment.
func (ae *appEnv) Close() {
	if ae.Store != nil {
		_ = ae.Store.Close()
	}
}

// initStore opens and migrates the forecast cache at the configured path.
func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	return st, nil
}

// initEnv sets up the store, the OWM client, and the sync orchestrator.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	p := provider.New(st)

	client := owm.NewClient(cfg.OWM)
	ingester := owm.NewIngester(p, client, cfg.OWM.Days)

	var notifier syncer.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = syncer.NewWebhookNotifier(cfg.Notify.WebhookURL)
	} else {
		notifier = syncer.LogNotifier{}
	}

	orch := syncer.New(p, st, ingester, notifier, cfg)

	return &appEnv{Store: st, Provider: p, Orchestrator: orch}, nil
}

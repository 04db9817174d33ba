// Package syncer orchestrates forecast synchronization: manual "sync now"
// triggers, the periodic schedule, and the staleness-gated user notification
// that may follow a successful sync.
package syncer

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/skycast-labs/forecast-cli/internal/config"
	"github.com/skycast-labs/forecast-cli/internal/contract"
	"github.com/skycast-labs/forecast-cli/internal/display"
	"github.com/skycast-labs/forecast-cli/internal/provider"
	"github.com/skycast-labs/forecast-cli/internal/store"
)

// Ingester runs one fetch-and-store cycle for a location setting.
type Ingester interface {
	Sync(ctx context.Context, locationSetting string) error
}

// Orchestrator drives the ingester on demand or on a schedule. Concurrent
// sync requests for the same location collapse into the in-flight one; a
// second sync for a location never starts while the first is running.
type Orchestrator struct {
	provider *provider.Provider
	store    *store.SQLiteStore
	ingester Ingester
	notifier Notifier
	cfg      *config.Config

	group singleflight.Group

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// New builds an Orchestrator. notifier may be nil to disable notifications
// regardless of config.
func New(p *provider.Provider, st *store.SQLiteStore, ing Ingester, notifier Notifier, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		provider: p,
		store:    st,
		ingester: ing,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SyncNow runs one sync for the location setting. After a successful sync it
// decides whether a user notification is due; notification problems are
// logged, never failed through, since the forecast data itself is fine.
func (o *Orchestrator) SyncNow(ctx context.Context, location string) error {
	if location == "" {
		return eris.New("syncer: no location configured")
	}

	_, err, _ := o.group.Do(location, func() (any, error) {
		if err := o.ingester.Sync(ctx, location); err != nil {
			return nil, err
		}
		if err := o.maybeNotify(ctx, location); err != nil {
			zap.L().Warn("post-sync notification failed",
				zap.String("location", location),
				zap.Error(err),
			)
		}
		return nil, nil
	})
	return err
}

// RunPeriodic syncs the configured location every interval until ctx is
// done. Each run is delayed by a random share of the flex window so the
// fetches don't land on a fixed beat. Failures are logged; the next tick is
// the retry.
func (o *Orchestrator) RunPeriodic(ctx context.Context) error {
	location := o.cfg.Sync.Location
	if location == "" {
		return eris.New("syncer: no location configured")
	}

	sched := gocron.NewScheduler(time.UTC)
	_, err := sched.Every(o.cfg.Sync.Interval()).Do(func() {
		if flex := o.cfg.Sync.Flex(); flex > 0 {
			delay := time.Duration(rand.Int64N(int64(flex)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
		if err := o.SyncNow(ctx, location); err != nil {
			zap.L().Error("periodic sync failed",
				zap.String("location", location),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		return eris.Wrap(err, "syncer: schedule")
	}

	zap.L().Info("periodic sync started",
		zap.String("location", location),
		zap.Duration("interval", o.cfg.Sync.Interval()),
		zap.Duration("flex", o.cfg.Sync.Flex()),
	)
	sched.StartAsync()
	<-ctx.Done()
	sched.Stop()
	return nil
}

// maybeNotify emits at most one user notification per staleness window
// (default 24h). It only fires when today's forecast row exists; without
// one, neither the notification nor the timestamp moves.
func (o *Orchestrator) maybeNotify(ctx context.Context, location string) error {
	if o.notifier == nil || !o.cfg.Notify.Enabled {
		return nil
	}

	now := o.now()
	last, err := o.store.GetPrefInt64(ctx, store.PrefLastNotification)
	if err != nil {
		return err
	}
	if now.UnixMilli()-last < o.cfg.Notify.Staleness().Milliseconds() {
		return nil
	}

	rows, err := o.provider.QueryWeather(ctx,
		contract.WeatherForLocationDate(location, now.Unix()), provider.Query{})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	r := rows[0]
	metric := o.cfg.Display.Metric()
	n := Notification{
		Location:    location,
		ConditionID: r.ConditionID,
		Icon:        display.IconForCondition(r.ConditionID),
		High:        display.FormatTemperature(r.MaxTemp, metric),
		Low:         display.FormatTemperature(r.MinTemp, metric),
		Description: r.Description,
		At:          now.UTC(),
	}
	if err := o.notifier.Notify(ctx, n); err != nil {
		// Timestamp stays put so the next successful sync retries.
		return err
	}
	return o.store.SetPrefInt64(ctx, store.PrefLastNotification, now.UnixMilli())
}

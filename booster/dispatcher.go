package booster

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// TriggerKind names what caused a refresh.
type TriggerKind string

const (
	TriggerNavigation TriggerKind = "navigation"
	TriggerTimer      TriggerKind = "timer"
	TriggerUser       TriggerKind = "user"
)

// Trigger asks the dispatcher for a refresh. AppID is only read for
// navigation and user triggers; an empty AppID on a user trigger means
// the current app.
type Trigger struct {
	Kind  TriggerKind
	AppID string
}

// Refresher produces reports.
type Refresher interface {
	Refresh(ctx context.Context, appID string) *Report
	RefreshFavorites(ctx context.Context) *Report
	EvictStale(ctx context.Context) int
}

// Dispatcher turns triggers into refresh passes. Each full refresh gets a
// new epoch and only a report from the latest epoch is emitted; results of
// superseded passes are dropped.
type Dispatcher struct {
	refresher Refresher
	logger    *slog.Logger

	epoch   atomic.Uint64
	emitMu  sync.Mutex
	current string
	visited bool
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(refresher Refresher, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{refresher: refresher, logger: logger}
}

// Run evicts stale cache entries once, then serves triggers until the
// channel is closed or ctx is done. It waits for in-flight refreshes
// before returning.
func (d *Dispatcher) Run(ctx context.Context, triggers <-chan Trigger, emit func(*Report)) error {
	evicted := d.refresher.EvictStale(ctx)
	d.logger.Info("startup cache eviction finished", "evicted", evicted)

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-triggers:
			if !ok {
				return nil
			}
			d.dispatch(ctx, &wg, t, emit)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, wg *sync.WaitGroup, t Trigger, emit func(*Report)) {
	switch t.Kind {
	case TriggerNavigation:
		if d.visited && t.AppID == d.current {
			// Same page again, only the favorites can have changed.
			d.start(ctx, wg, t.Kind, d.epoch.Load(), emit, d.refresher.RefreshFavorites)
			return
		}
		d.current = t.AppID
		d.visited = true
	case TriggerUser:
		if t.AppID != "" {
			d.current = t.AppID
			d.visited = true
		}
	case TriggerTimer:
	default:
		d.logger.Warn("ignoring unknown trigger", "kind", t.Kind)
		return
	}

	appID := d.current
	epoch := d.epoch.Add(1)
	d.logger.Debug("refresh scheduled", "kind", t.Kind, "app_id", appID, "epoch", epoch)
	d.start(ctx, wg, t.Kind, epoch, emit, func(ctx context.Context) *Report {
		return d.refresher.Refresh(ctx, appID)
	})
}

func (d *Dispatcher) start(ctx context.Context, wg *sync.WaitGroup, kind TriggerKind, epoch uint64, emit func(*Report), refresh func(context.Context) *Report) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		report := refresh(ctx)
		report.Epoch = epoch
		report.Trigger = kind

		d.emitMu.Lock()
		defer d.emitMu.Unlock()

		if latest := d.epoch.Load(); epoch != latest {
			d.logger.Debug("dropping stale report", "app_id", report.AppID, "epoch", epoch, "latest", latest)
			return
		}
		emit(report)
	}()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rtshell/internal/adapter"
	"rtshell/internal/config"
	"rtshell/internal/domain"
	"rtshell/internal/handler"
	"rtshell/internal/hub"
	"rtshell/internal/loader"
	"rtshell/internal/repository"
	"rtshell/internal/repository/sqlite"
	"rtshell/internal/service"
	"rtshell/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

// daemon owns everything rtnamed runs
type daemon struct {
	cfg    *config.Config
	logger *zap.Logger

	repo     *sqlite.Repository
	bus      *service.EventBus
	registry *service.Registry
	hub      *hub.Hub
	adapters *adapter.Registry
	handler  http.Handler
}

func newDaemon(ctx context.Context, cfg *config.Config, demo bool, logger *zap.Logger) (*daemon, error) {
	repo, err := sqlite.New(cfg.Registry.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("database opened", zap.String("path", cfg.Registry.Database))

	d := &daemon{
		cfg:    cfg,
		logger: logger,
		repo:   repo,
		bus:    service.NewEventBus(),
		hub:    hub.New(logger.Named("hub")),
	}
	d.registry = service.NewRegistry(repo, d.bus, logger.Named("registry"))

	snap, err := d.initialSnapshot(ctx, demo)
	if err != nil {
		repo.Close()
		return nil, err
	}
	if err := d.registry.Restore(ctx, snap); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to restore registry: %w", err)
	}
	contexts, components, zombies := snap.Stats()
	logger.Info("registry restored",
		zap.Int("contexts", contexts),
		zap.Int("components", components),
		zap.Int("zombies", zombies),
	)

	d.adapters = d.newAdapters()

	api := handler.NewRegistryHandler(d.registry, logger.Named("api"))
	api.SetJournal(repo)
	mux := http.NewServeMux()
	api.Routes(mux)
	mux.Handle("GET /api/events", d.hub)
	d.handler = handler.Chain(mux,
		handler.Recover(logger),
		handler.Logger(logger.Named("http")),
	)
	return d, nil
}

// initialSnapshot picks the seed file, then the stored snapshot, then the
// demo system. With none of them the registry starts empty.
func (d *daemon) initialSnapshot(ctx context.Context, demo bool) (*domain.Snapshot, error) {
	if seed := d.cfg.Registry.Seed; seed != "" {
		d.logger.Info("seeding registry", zap.String("file", seed))
		return loader.LoadYAML(seed)
	}

	snap, err := d.repo.LoadSnapshot(ctx)
	switch {
	case err == nil:
		return snap, nil
	case !errors.Is(err, repository.ErrNoSnapshot):
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	case demo:
		d.logger.Info("seeding registry with the demo system")
		return loader.Demo()
	}
	return &domain.Snapshot{}, nil
}

// newAdapters registers the background integrations and routes their
// findings back into the registry
func (d *daemon) newAdapters() *adapter.Registry {
	reconciler := service.NewReconcileService(d.registry, d.logger.Named("reconcile"))
	reg := adapter.NewRegistry(func(ctx context.Context, source string, fragment *adapter.Fragment) error {
		if fragment.Empty() {
			return nil
		}
		changed, err := reconciler.Reconcile(ctx, source, fragment.Observations)
		if changed > 0 {
			d.logger.Info("reconciled liveness", zap.String("source", source), zap.Int("changed", changed))
		}
		return err
	}, d.logger.Named("adapters"))

	reg.SetDiscoveryEventHandler(func(eventType string, payload map[string]string) {
		d.bus.Publish(service.Event{Type: service.EventType(eventType), Payload: payload})
	})

	live := d.cfg.Registry.Liveness
	lc := adapter.DefaultLivenessConfig()
	if t := live.Timeout.Duration(); t > 0 {
		lc.Timeout = t
	}
	liveness := adapter.NewLivenessAdapter(d.registry, lc, d.logger.Named("liveness"))
	liveness.SetEventPublisher(reg)
	if err := reg.Register(liveness, adapter.AdapterConfig{
		Enabled:      live.Enabled,
		PollInterval: live.Interval.Duration().String(),
	}); err != nil {
		d.logger.Warn("failed to register liveness adapter", zap.Error(err))
	}
	return reg
}

// Run serves until ctx is cancelled, then shuts everything down
func (d *daemon) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         d.cfg.Registry.Listen,
		Handler:      d.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		d.hub.Forward(ctx, d.bus)
		return nil
	})
	g.Go(func() error {
		service.RunJournal(ctx, d.bus, d.repo, d.logger.Named("journal"))
		return nil
	})
	if seed := d.cfg.Registry.Seed; seed != "" && d.cfg.Registry.Watch {
		w := watcher.New(seed, d.reloadSeed(seed), d.logger.Named("watcher"))
		g.Go(func() error {
			if err := w.Watch(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := d.adapters.Start(ctx); err != nil {
		d.logger.Warn("failed to start adapters", zap.Error(err))
	}

	g.Go(func() error {
		d.logger.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		d.logger.Info("shutting down")
		if err := d.adapters.Stop(); err != nil {
			d.logger.Warn("adapter shutdown error", zap.Error(err))
		}
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sctx)
	})

	err := g.Wait()
	d.logger.Info("stopped")
	return err
}

// reloadSeed replaces the registry contents with the seed file
func (d *daemon) reloadSeed(path string) func(ctx context.Context) {
	return func(ctx context.Context) {
		snap, err := loader.LoadYAML(path)
		if err != nil {
			d.logger.Warn("seed reload failed", zap.String("file", path), zap.Error(err))
			return
		}
		if err := d.registry.Restore(ctx, snap); err != nil {
			d.logger.Warn("seed restore failed", zap.String("file", path), zap.Error(err))
			return
		}
		d.logger.Info("seed reloaded", zap.String("file", path))
	}
}

// Close releases the database
func (d *daemon) Close() error {
	return d.repo.Close()
}

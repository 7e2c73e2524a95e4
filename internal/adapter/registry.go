package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ReconcileFunc is called when an adapter produces a fragment to be merged
type ReconcileFunc func(ctx context.Context, source string, fragment *Fragment) error

// DiscoveryEventFunc is called when discovery events occur
type DiscoveryEventFunc func(eventType string, payload map[string]string)

// Registry manages all registered adapters and their lifecycle
type Registry struct {
	mu             sync.RWMutex
	adapters       map[string]Adapter
	configs        map[string]AdapterConfig
	reconcile      ReconcileFunc
	discoveryEvent DiscoveryEventFunc
	logger         *zap.Logger
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

// NewRegistry creates a new adapter registry
func NewRegistry(reconcile ReconcileFunc, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		adapters:  make(map[string]Adapter),
		configs:   make(map[string]AdapterConfig),
		reconcile: reconcile,
		logger:    logger,
	}
}

// SetDiscoveryEventHandler sets the handler for discovery events
func (r *Registry) SetDiscoveryEventHandler(handler DiscoveryEventFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discoveryEvent = handler
}

// PublishDiscoveryEvent implements EventPublisher interface
func (r *Registry) PublishDiscoveryEvent(eventType string, payload map[string]string) {
	r.mu.RLock()
	handler := r.discoveryEvent
	r.mu.RUnlock()

	if handler != nil {
		handler(eventType, payload)
	}
}

// Register adds an adapter to the registry
func (r *Registry) Register(adapter Adapter, config AdapterConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := adapter.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %s already registered", name)
	}

	if progressAdapter, ok := adapter.(ProgressAdapter); ok {
		progressAdapter.SetEventPublisher(r)
	}

	r.adapters[name] = adapter
	r.configs[name] = config
	r.logger.Info("registered adapter",
		zap.String("adapter", name),
		zap.String("type", string(adapter.Type())),
		zap.Bool("enabled", config.Enabled))

	return nil
}

// Start initializes all enabled adapters and begins their polling loops.
// The loops run until ctx is cancelled or Stop is called.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return fmt.Errorf("adapter registry already started")
	}
	ctx, r.cancel = context.WithCancel(ctx)

	for name, adapter := range r.adapters {
		config := r.configs[name]
		if !config.Enabled {
			r.logger.Info("adapter disabled, skipping", zap.String("adapter", name))
			continue
		}

		if err := adapter.Start(ctx); err != nil {
			r.logger.Warn("failed to start adapter", zap.String("adapter", name), zap.Error(err))
			continue
		}

		if adapter.Type() == AdapterTypePolling {
			r.startPollingLoop(ctx, name, adapter, config)
		}
	}

	return nil
}

// Stop cancels the polling loops, waits for them and stops every adapter
func (r *Registry) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()

	r.mu.RLock()
	defer r.mu.RUnlock()
	var err error
	for name, adapter := range r.adapters {
		if stopErr := adapter.Stop(); stopErr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", name, stopErr))
		}
	}
	return err
}

// TriggerSync manually triggers a sync for a specific adapter
func (r *Registry) TriggerSync(ctx context.Context, name string) error {
	r.mu.RLock()
	adapter, exists := r.adapters[name]
	config := r.configs[name]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("adapter %s not found", name)
	}

	if !config.Enabled {
		return fmt.Errorf("adapter %s is disabled", name)
	}

	return r.runSync(ctx, name, adapter)
}

// ListAdapters returns information about registered adapters, sorted by name
func (r *Registry) ListAdapters() []AdapterInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var infos []AdapterInfo
	for name, adapter := range r.adapters {
		config := r.configs[name]
		infos = append(infos, AdapterInfo{
			Name:         name,
			Type:         adapter.Type(),
			Enabled:      config.Enabled,
			PollInterval: config.PollInterval,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// AdapterInfo provides read-only information about an adapter
type AdapterInfo struct {
	Name         string      `json:"name"`
	Type         AdapterType `json:"type"`
	Enabled      bool        `json:"enabled"`
	PollInterval string      `json:"poll_interval,omitempty"`
}

// startPollingLoop starts a goroutine that polls the adapter on schedule
func (r *Registry) startPollingLoop(ctx context.Context, name string, adapter Adapter, config AdapterConfig) {
	interval, err := time.ParseDuration(config.PollInterval)
	if err != nil || interval <= 0 {
		r.logger.Warn("invalid poll interval, using 1m default",
			zap.String("adapter", name), zap.String("interval", config.PollInterval))
		interval = time.Minute
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if err := r.runSync(ctx, name, adapter); err != nil {
			r.logger.Warn("initial sync failed", zap.String("adapter", name), zap.Error(err))
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				r.logger.Debug("stopping polling loop", zap.String("adapter", name))
				return
			case <-ticker.C:
				if err := r.runSync(ctx, name, adapter); err != nil {
					r.logger.Warn("sync failed", zap.String("adapter", name), zap.Error(err))
				}
			}
		}
	}()

	r.logger.Info("started polling loop", zap.String("adapter", name), zap.Duration("interval", interval))
}

// runSync executes a sync operation and reconciles the result
func (r *Registry) runSync(ctx context.Context, name string, adapter Adapter) error {
	fragment, err := adapter.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if fragment.Empty() {
		r.logger.Debug("adapter returned empty fragment", zap.String("adapter", name))
		return nil
	}

	if r.reconcile != nil {
		if err := r.reconcile(ctx, name, fragment); err != nil {
			return fmt.Errorf("reconcile failed: %w", err)
		}
	}

	r.logger.Debug("adapter sync complete",
		zap.String("adapter", name),
		zap.Int("observations", len(fragment.Observations)),
		zap.Int("servers", len(fragment.Servers)))

	return nil
}

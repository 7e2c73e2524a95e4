package adapter

import (
	"context"

	"rtshell/internal/service"
)

// AdapterType defines how an adapter interacts with its data source
type AdapterType string

const (
	// AdapterTypePolling - adapter pulls data on a schedule
	AdapterTypePolling AdapterType = "polling"
	// AdapterTypeOneShot - manual trigger only
	AdapterTypeOneShot AdapterType = "oneshot"
)

// AdapterConfig holds configuration for an adapter instance
type AdapterConfig struct {
	Enabled bool `json:"enabled"`
	// PollInterval for polling adapters (e.g., "30s", "5m")
	PollInterval string `json:"poll_interval,omitempty"`
}

// Server is a name server found on the network
type Server struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// Hostname is the reverse DNS name, when known
	Hostname string `json:"hostname,omitempty"`
}

// Fragment is what one adapter sync produced
type Fragment struct {
	Observations []service.Observation
	Servers      []Server
}

// Empty reports whether the fragment carries nothing to reconcile
func (f *Fragment) Empty() bool {
	return f == nil || (len(f.Observations) == 0 && len(f.Servers) == 0)
}

// Adapter defines the interface for background registry integrations
type Adapter interface {
	// Name returns the unique identifier for this adapter
	Name() string

	// Type returns how this adapter interacts with its source
	Type() AdapterType

	// Start initializes the adapter (called once on startup)
	Start(ctx context.Context) error

	// Stop gracefully shuts down the adapter
	Stop() error

	// Sync runs one cycle and returns what it found
	Sync(ctx context.Context) (*Fragment, error)
}

// EventPublisher allows adapters to publish progress events
type EventPublisher interface {
	PublishDiscoveryEvent(eventType string, payload map[string]string)
}

// ProgressAdapter extends Adapter with progress reporting
type ProgressAdapter interface {
	Adapter

	// SetEventPublisher sets the event publisher for progress updates
	SetEventPublisher(pub EventPublisher)
}

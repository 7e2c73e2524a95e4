package adapter

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rtshell/internal/service"
)

// EndpointSource lists the endpoints to verify
type EndpointSource interface {
	Endpoints() []service.EndpointStatus
}

// ProbeFunc reports whether an endpoint accepts connections
type ProbeFunc func(ctx context.Context, endpoint string) bool

// LivenessConfig holds configuration for the liveness adapter
type LivenessConfig struct {
	// Timeout for a single TCP probe
	Timeout time.Duration
	// MaxConcurrent limits parallel probes
	MaxConcurrent int
	// Probe overrides the TCP dial, mostly for tests
	Probe ProbeFunc
}

// DefaultLivenessConfig returns sensible defaults
func DefaultLivenessConfig() LivenessConfig {
	return LivenessConfig{
		Timeout:       2 * time.Second,
		MaxConcurrent: 10,
	}
}

// LivenessAdapter TCP-probes the endpoints of registered components. A
// component whose endpoint refuses connections is reported dead.
type LivenessAdapter struct {
	config    LivenessConfig
	source    EndpointSource
	publisher EventPublisher
	logger    *zap.Logger
	mu        sync.Mutex
	running   bool
}

// NewLivenessAdapter creates a new liveness adapter
func NewLivenessAdapter(source EndpointSource, config LivenessConfig, logger *zap.Logger) *LivenessAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	l := &LivenessAdapter{config: config, source: source, logger: logger}
	if l.config.Probe == nil {
		l.config.Probe = l.tcpPing
	}
	return l
}

// SetEventPublisher sets the event publisher for progress updates
func (l *LivenessAdapter) SetEventPublisher(pub EventPublisher) {
	l.publisher = pub
}

func (l *LivenessAdapter) Name() string {
	return "liveness"
}

func (l *LivenessAdapter) Type() AdapterType {
	return AdapterTypePolling
}

func (l *LivenessAdapter) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = true
	return nil
}

func (l *LivenessAdapter) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
	return nil
}

// Sync probes every endpoint once and returns one observation per endpoint
func (l *LivenessAdapter) Sync(ctx context.Context) (*Fragment, error) {
	l.mu.Lock()
	running := l.running
	l.mu.Unlock()
	if !running {
		return nil, fmt.Errorf("adapter not running")
	}

	endpoints := l.source.Endpoints()
	if len(endpoints) == 0 {
		return nil, nil
	}

	obs := make([]service.Observation, len(endpoints))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.MaxConcurrent)
	for i, ep := range endpoints {
		g.Go(func() error {
			alive := l.config.Probe(gctx, ep.Endpoint)
			obs[i] = service.Observation{Ref: ep.Ref, Alive: alive}
			if alive != ep.Alive {
				l.logger.Info("endpoint liveness changed",
					zap.String("ref", ep.Ref),
					zap.String("endpoint", ep.Endpoint),
					zap.Bool("alive", alive))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	down := 0
	for _, o := range obs {
		if !o.Alive {
			down++
		}
	}
	if l.publisher != nil {
		l.publisher.PublishDiscoveryEvent("liveness-complete", map[string]string{
			"total":       fmt.Sprint(len(obs)),
			"unreachable": fmt.Sprint(down),
		})
	}

	return &Fragment{Observations: obs}, nil
}

// tcpPing attempts a TCP connection to the endpoint
func (l *LivenessAdapter) tcpPing(ctx context.Context, endpoint string) bool {
	dialer := net.Dialer{Timeout: l.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

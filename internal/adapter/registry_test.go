package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"rtshell/internal/service"
)

type fakeAdapter struct {
	name     string
	typ      AdapterType
	mu       sync.Mutex
	syncs    int
	started  bool
	startErr error
	stopErr  error
	fragment *Fragment
}

func (f *fakeAdapter) Name() string      { return f.name }
func (f *fakeAdapter) Type() AdapterType { return f.typ }

func (f *fakeAdapter) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = f.startErr == nil
	return f.startErr
}

func (f *fakeAdapter) Stop() error { return f.stopErr }

func (f *fakeAdapter) Sync(ctx context.Context) (*Fragment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs++
	return f.fragment, nil
}

func (f *fakeAdapter) syncCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncs
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(&fakeAdapter{name: "b", typ: AdapterTypePolling}, AdapterConfig{Enabled: true, PollInterval: "1m"}))
	require.NoError(t, r.Register(&fakeAdapter{name: "a", typ: AdapterTypeOneShot}, AdapterConfig{}))
	assert.Error(t, r.Register(&fakeAdapter{name: "a"}, AdapterConfig{}))

	infos := r.ListAdapters()
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)
	assert.Equal(t, "1m", infos[1].PollInterval)
}

func TestRegistry_PollingLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	var mu sync.Mutex
	var sources []string
	reconcile := func(ctx context.Context, source string, fragment *Fragment) error {
		mu.Lock()
		defer mu.Unlock()
		sources = append(sources, source)
		return nil
	}

	poller := &fakeAdapter{
		name:     "liveness",
		typ:      AdapterTypePolling,
		fragment: &Fragment{Observations: []service.Observation{{Ref: "/a.rtc", Alive: true}}},
	}
	disabled := &fakeAdapter{name: "nmap", typ: AdapterTypePolling}
	broken := &fakeAdapter{name: "broken", typ: AdapterTypePolling, startErr: errors.New("no binary")}

	r := NewRegistry(reconcile, nil)
	require.NoError(t, r.Register(poller, AdapterConfig{Enabled: true, PollInterval: "10ms"}))
	require.NoError(t, r.Register(disabled, AdapterConfig{Enabled: false, PollInterval: "10ms"}))
	require.NoError(t, r.Register(broken, AdapterConfig{Enabled: true, PollInterval: "10ms"}))

	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()))

	require.Eventually(t, func() bool { return poller.syncCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, r.Stop())

	assert.Zero(t, disabled.syncCount())
	assert.Zero(t, broken.syncCount())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "liveness", sources[0])
}

func TestRegistry_TriggerSync(t *testing.T) {
	ctx := context.Background()
	reconciled := 0
	r := NewRegistry(func(ctx context.Context, source string, fragment *Fragment) error {
		reconciled++
		return nil
	}, nil)

	empty := &fakeAdapter{name: "empty", typ: AdapterTypeOneShot}
	full := &fakeAdapter{name: "full", typ: AdapterTypeOneShot, fragment: &Fragment{Servers: []Server{{Host: "h", Port: 2809}}}}
	require.NoError(t, r.Register(empty, AdapterConfig{Enabled: true}))
	require.NoError(t, r.Register(full, AdapterConfig{Enabled: true}))
	require.NoError(t, r.Register(&fakeAdapter{name: "off"}, AdapterConfig{}))

	require.NoError(t, r.TriggerSync(ctx, "empty"))
	assert.Equal(t, 0, reconciled)
	require.NoError(t, r.TriggerSync(ctx, "full"))
	assert.Equal(t, 1, reconciled)

	assert.Error(t, r.TriggerSync(ctx, "off"))
	assert.Error(t, r.TriggerSync(ctx, "missing"))
}

func TestRegistry_StopCombinesErrors(t *testing.T) {
	r := NewRegistry(nil, nil)
	require.NoError(t, r.Register(&fakeAdapter{name: "a", stopErr: errors.New("a failed")}, AdapterConfig{}))
	require.NoError(t, r.Register(&fakeAdapter{name: "b", stopErr: errors.New("b failed")}, AdapterConfig{}))

	err := r.Stop()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a failed")
	assert.Contains(t, err.Error(), "b failed")
}

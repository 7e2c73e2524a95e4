package adapter

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtshell/internal/service"
)

type staticEndpoints []service.EndpointStatus

func (s staticEndpoints) Endpoints() []service.EndpointStatus { return s }

func TestLivenessAdapter_TCPProbe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	// grab a port and release it so nothing is listening there
	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedAddr := closed.Addr().String()
	closed.Close()

	src := staticEndpoints{
		{Ref: "/h/Up0.rtc", Endpoint: ln.Addr().String(), Alive: false},
		{Ref: "/h/Down0.rtc", Endpoint: closedAddr, Alive: true},
	}
	l := NewLivenessAdapter(src, LivenessConfig{Timeout: time.Second, MaxConcurrent: 2}, nil)
	ctx := context.Background()
	require.NoError(t, l.Start(ctx))
	defer l.Stop()

	frag, err := l.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []service.Observation{
		{Ref: "/h/Up0.rtc", Alive: true},
		{Ref: "/h/Down0.rtc", Alive: false},
	}, frag.Observations)
}

type recordingPublisher struct {
	events []string
	last   map[string]string
}

func (r *recordingPublisher) PublishDiscoveryEvent(eventType string, payload map[string]string) {
	r.events = append(r.events, eventType)
	r.last = payload
}

func TestLivenessAdapter_Sync(t *testing.T) {
	ctx := context.Background()

	t.Run("not running", func(t *testing.T) {
		l := NewLivenessAdapter(staticEndpoints{}, DefaultLivenessConfig(), nil)
		_, err := l.Sync(ctx)
		assert.Error(t, err)
	})

	t.Run("nothing to probe", func(t *testing.T) {
		l := NewLivenessAdapter(staticEndpoints{}, DefaultLivenessConfig(), nil)
		require.NoError(t, l.Start(ctx))
		frag, err := l.Sync(ctx)
		require.NoError(t, err)
		assert.True(t, frag.Empty())
	})

	t.Run("probe override and progress", func(t *testing.T) {
		src := staticEndpoints{
			{Ref: "/a.rtc", Endpoint: "a:1"},
			{Ref: "/b.rtc", Endpoint: "b:1"},
			{Ref: "/c.rtc", Endpoint: "c:1"},
		}
		cfg := DefaultLivenessConfig()
		cfg.Probe = func(ctx context.Context, endpoint string) bool { return endpoint != "b:1" }
		l := NewLivenessAdapter(src, cfg, nil)
		pub := &recordingPublisher{}
		l.SetEventPublisher(pub)
		require.NoError(t, l.Start(ctx))

		frag, err := l.Sync(ctx)
		require.NoError(t, err)
		require.Len(t, frag.Observations, 3)
		assert.False(t, frag.Observations[1].Alive)
		assert.Equal(t, []string{"liveness-complete"}, pub.events)
		assert.Equal(t, "1", pub.last["unreachable"])
	})
}

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rtshell/internal/config"
	"rtshell/internal/loader"
)

type health struct {
	Status     string `json:"status"`
	Contexts   int    `json:"contexts"`
	Components int    `json:"components"`
	Zombies    int    `json:"zombies"`
}

func testConfig(t *testing.T, db string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Registry.Database = db
	cfg.Registry.Listen = "127.0.0.1:0"
	return cfg
}

func getHealth(t *testing.T, d *daemon) health {
	t.Helper()
	srv := httptest.NewServer(d.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	return h
}

func demoComponents(t *testing.T) int {
	t.Helper()
	snap, err := loader.Demo()
	require.NoError(t, err)
	_, components, _ := snap.Stats()
	return components
}

func TestDaemonInitialSnapshot(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, loader.DemoYAML(), 0o644))

	tests := []struct {
		name       string
		seed       string
		demo       bool
		components int
	}{
		{name: "empty", components: 0},
		{name: "demo", demo: true, components: demoComponents(t)},
		{name: "seed", seed: seed, components: demoComponents(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, ":memory:")
			cfg.Registry.Seed = tt.seed
			d, err := newDaemon(context.Background(), cfg, tt.demo, zap.NewNop())
			require.NoError(t, err)
			defer d.Close()

			h := getHealth(t, d)
			assert.Equal(t, "ok", h.Status)
			assert.Equal(t, tt.components, h.Components)
		})
	}
}

func TestDaemonStoredSnapshotWins(t *testing.T) {
	db := filepath.Join(t.TempDir(), "rtnamed.db")

	d, err := newDaemon(context.Background(), testConfig(t, db), true, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = newDaemon(context.Background(), testConfig(t, db), false, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, demoComponents(t), getHealth(t, d).Components)
}

func TestDaemonReloadSeed(t *testing.T) {
	d, err := newDaemon(context.Background(), testConfig(t, ":memory:"), false, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()
	require.Zero(t, getHealth(t, d).Components)

	seed := filepath.Join(t.TempDir(), "seed.yaml")
	d.reloadSeed(seed)(context.Background())
	assert.Zero(t, getHealth(t, d).Components, "missing seed leaves the registry alone")

	require.NoError(t, os.WriteFile(seed, loader.DemoYAML(), 0o644))
	d.reloadSeed(seed)(context.Background())
	assert.Equal(t, demoComponents(t), getHealth(t, d).Components)
}

func TestDaemonBadSeed(t *testing.T) {
	cfg := testConfig(t, ":memory:")
	cfg.Registry.Seed = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := newDaemon(context.Background(), cfg, false, zap.NewNop())
	assert.Error(t, err)
}

func TestDaemonRunStops(t *testing.T) {
	d, err := newDaemon(context.Background(), testConfig(t, ":memory:"), true, zap.NewNop())
	require.NoError(t, err)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv(config.EnvNameServers, "")
	t.Setenv(config.EnvCwd, "")
	t.Setenv(config.EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "rtshell.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nregistry:\n  listen: \":9000\"\n"), 0o644))

	cfg, err := loadConfig(options{configPath: path})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Registry.Listen)

	cfg, err = loadConfig(options{configPath: path, listen: ":9001", database: "x.db", seed: "s.yaml", watch: true})
	require.NoError(t, err)
	assert.Equal(t, ":9001", cfg.Registry.Listen)
	assert.Equal(t, "x.db", cfg.Registry.Database)
	assert.Equal(t, "s.yaml", cfg.Registry.Seed)
	assert.True(t, cfg.Registry.Watch)
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rtshell/internal/domain"
	"rtshell/internal/naming"
	"rtshell/internal/repository"
	"rtshell/internal/testutil"
)

const cxt = "/local.host_cxt"

func newTestServer(t *testing.T) (*httptest.Server, *naming.Client) {
	t.Helper()
	mux := http.NewServeMux()
	NewRegistryHandler(testutil.DemoRegistry(t), nil).Routes(mux)
	srv := httptest.NewServer(Chain(mux, Recover(zap.NewNop()), Logger(zap.NewNop())))
	t.Cleanup(srv.Close)
	return srv, naming.NewClient(srv.URL)
}

func TestClientRoundTrip(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		bindings, err := client.List(ctx, cxt)
		require.NoError(t, err)
		require.Len(t, bindings, 8)
		assert.Equal(t, "Std0.rtc", bindings[0].Name)
		assert.Equal(t, "manager.mgr", bindings[7].Name)
	})

	t.Run("probe", func(t *testing.T) {
		kind, err := client.Probe(ctx, cxt+"/manager.mgr")
		require.NoError(t, err)
		assert.Equal(t, domain.ObjectManager, kind)
	})

	t.Run("defunct object", func(t *testing.T) {
		_, err := client.Probe(ctx, cxt+"/Zombie0.rtc")
		assert.True(t, errors.Is(err, domain.ErrDefunct), "got %v", err)
	})

	t.Run("component", func(t *testing.T) {
		comp, err := client.Component(ctx, cxt+"/Std0.rtc")
		require.NoError(t, err)
		assert.Equal(t, "RTC:Geoffrey Biggs:test:Std:1.0", comp.TypeID())
		assert.Equal(t, domain.StateInactive, comp.State(0))
	})

	t.Run("connect and disconnect", func(t *testing.T) {
		conn, err := client.Connect(ctx, naming.ConnectRequest{
			ID: "c0",
			Ports: []domain.PortRef{
				{Ref: cxt + "/Output0.rtc", Port: "out"},
				{Ref: cxt + "/Std0.rtc", Port: "in"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "push", conn.Properties["dataport.dataflow_type"])

		comp, err := client.Component(ctx, cxt+"/Std0.rtc")
		require.NoError(t, err)
		require.Len(t, comp.Port("in").Connectors, 1)

		require.NoError(t, client.Disconnect(ctx, domain.PortRef{Ref: cxt + "/Std0.rtc", Port: "in"}, "c0"))
		err = client.Disconnect(ctx, domain.PortRef{Ref: cxt + "/Std0.rtc", Port: "in"}, "c0")
		assert.True(t, errors.Is(err, domain.ErrNotConnected))
	})

	t.Run("wrong polarity", func(t *testing.T) {
		_, err := client.Connect(ctx, naming.ConnectRequest{
			Ports: []domain.PortRef{
				{Ref: cxt + "/Err0.rtc", Port: "in"},
				{Ref: cxt + "/Std0.rtc", Port: "in"},
			},
		})
		assert.True(t, errors.Is(err, domain.ErrWrongPolarity))
	})

	t.Run("hidden set keeps the framework message", func(t *testing.T) {
		err := client.ActivateConfigSet(ctx, cxt+"/Std0.rtc", "__hidden__")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInternal))
		assert.Equal(t, "SDOPackage.InternalError", err.Error())
	})

	t.Run("state change", func(t *testing.T) {
		require.NoError(t, client.ChangeState(ctx, cxt+"/Std0.rtc", 0, domain.TransitionActivate))
		comp, err := client.Component(ctx, cxt+"/Std0.rtc")
		require.NoError(t, err)
		assert.Equal(t, domain.StateActive, comp.State(0))
	})

	t.Run("create component", func(t *testing.T) {
		ref, err := client.CreateComponent(ctx, cxt+"/manager.mgr", "Sensor")
		require.NoError(t, err)
		assert.Equal(t, cxt+"/Sensor1.rtc", ref)

		_, err = client.CreateComponent(ctx, cxt+"/Std0.rtc", "Sensor")
		assert.True(t, errors.Is(err, domain.ErrNotManager))
	})
}

func TestRequestValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"probe without ref", http.MethodGet, "/api/probe", "", http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/exit", "{", http.StatusBadRequest},
		{"list of an object", http.MethodGet, "/api/list?dir=" + cxt + "/Std0.rtc", "", http.StatusConflict},
		{"missing binding", http.MethodGet, "/api/component?ref=/nope", "", http.StatusNotFound},
		{"zombie", http.MethodGet, "/api/component?ref=" + cxt + "/Zombie0.rtc", "", http.StatusGone},
		{"journal disabled", http.MethodGet, "/api/journal", "", http.StatusNotFound},
		{"exit", http.MethodPost, "/api/exit", `{"ref":"` + cxt + `/Err0.rtc"}`, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestSnapshotAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, float64(1), health["contexts"])
	assert.Equal(t, float64(6), health["components"])
	assert.Equal(t, float64(1), health["zombies"])

	resp, err = http.Get(srv.URL + "/api/snapshot?format=yaml")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "application/x-yaml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "local.host_cxt/Std0.rtc")

	resp, err = http.Get(srv.URL + "/api/snapshot")
	require.NoError(t, err)
	var snap domain.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()
	assert.Len(t, snap.Components, 7)
	assert.Len(t, snap.Managers, 1)
}

type fakeJournal struct {
	limit int
}

func (f *fakeJournal) ListEvents(ctx context.Context, limit int) ([]repository.EventRecord, error) {
	f.limit = limit
	return []repository.EventRecord{{ID: 1, Type: "exited", Ref: "/x.rtc"}}, nil
}

func TestJournal(t *testing.T) {
	j := &fakeJournal{}
	h := NewRegistryHandler(testutil.DemoRegistry(t), nil)
	h.SetJournal(j)

	tests := []struct {
		query      string
		wantStatus int
		wantLimit  int
	}{
		{"", http.StatusOK, 100},
		{"?limit=5", http.StatusOK, 5},
		{"?limit=many", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			j.limit = 0
			w := httptest.NewRecorder()
			h.GetJournal(w, httptest.NewRequest(http.MethodGet, "/api/journal"+tt.query, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantLimit, j.limit)
		})
	}
}

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		err  *domain.RemoteError
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrPortNotFound, http.StatusNotFound},
		{domain.ErrNoSuchSet, http.StatusNotFound},
		{domain.ErrNoSuchParameter, http.StatusNotFound},
		{domain.ErrNoSuchContext, http.StatusNotFound},
		{domain.ErrNotConnected, http.StatusNotFound},
		{domain.ErrDefunct, http.StatusGone},
		{domain.ErrNotComponent, http.StatusConflict},
		{domain.ErrNotManager, http.StatusConflict},
		{domain.ErrNotContext, http.StatusConflict},
		{domain.ErrWrongPolarity, http.StatusConflict},
		{domain.ErrPrecondition, http.StatusConflict},
		{domain.ErrBadModule, http.StatusBadRequest},
		{domain.ErrBadRequest, http.StatusBadRequest},
		{domain.ErrInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForCode(tt.err.Code))
		})
	}
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover(zap.NewNop()))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

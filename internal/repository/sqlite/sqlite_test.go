package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"rtshell/internal/domain"
	"rtshell/internal/repository"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual any) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

func testSnapshot() *domain.Snapshot {
	std := domain.Component{
		InstanceName: "Std0",
		TypeName:     "Std",
		Category:     "test",
		Vendor:       "Geoffrey Biggs",
		Version:      "1.0",
		ExecutionContexts: []domain.ExecutionContext{
			{Index: 0, Kind: "PeriodicExecutionContext", Rate: 1000, Owned: true, State: domain.StateInactive},
		},
		Ports: []domain.Port{{
			Name:       "in",
			Polarity:   domain.PolarityDataIn,
			Properties: map[string]string{"dataport.data_type": "IDL:RTC/TimedLong:1.0"},
		}},
		ConfigSets: []domain.ConfigSet{
			{ID: "default", Parameters: []domain.Parameter{{Name: "param", Value: "0"}}},
		},
		ActiveConfigSet: "default",
	}
	motor := std.Clone()
	motor.InstanceName = "Motor0"
	motor.Endpoint = "127.0.0.1:9000"

	return &domain.Snapshot{
		Contexts: []string{"/local.host_cxt"},
		Components: []domain.ComponentRecord{
			{Ref: "/local.host_cxt/Std0.rtc", Alive: true, Component: std},
			{Ref: "/local.host_cxt/Zombie0.rtc", Alive: false, Component: domain.Component{InstanceName: "Zombie0"}},
			{Ref: "/local.host_cxt/Motor0.rtc", Alive: true, Component: motor, FailOnActivate: true},
		},
		Managers: []domain.ManagerRecord{{
			Ref:   "/local.host_cxt/manager.mgr",
			Alive: true,
			Manager: domain.Manager{
				Name:    "manager",
				Modules: []domain.Module{{Path: "/usr/lib/libMotor.so", InitFunc: "MotorInit"}},
				Components: []domain.Binding{
					{Name: "Motor0.rtc", Kind: domain.BindingObject, Ref: "/local.host_cxt/Motor0.rtc"},
				},
			},
		}},
	}
}

// ============================================================================
// Helper Function Tests
// ============================================================================

func TestNullToString(t *testing.T) {
	tests := []struct {
		name     string
		input    sql.NullString
		expected string
	}{
		{"valid string", sql.NullString{String: "hello", Valid: true}, "hello"},
		{"invalid string", sql.NullString{String: "ignored", Valid: false}, ""},
		{"valid empty", sql.NullString{String: "", Valid: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertEqual(t, tt.expected, nullToString(tt.input))
		})
	}
}

func TestMarshalToNull(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantValid bool
	}{
		{"nil", nil, false},
		{"empty map", map[string]string{}, false},
		{"map", map[string]string{"a": "b"}, true},
		{"struct", domain.Manager{Name: "m"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, err := marshalToNull(tt.input)
			assertNoError(t, err)
			assertEqual(t, tt.wantValid, ns.Valid)
		})
	}
}

// ============================================================================
// Snapshot Tests
// ============================================================================

func TestLoadSnapshotEmpty(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.LoadSnapshot(context.Background())
	if !errors.Is(err, repository.ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	want := testSnapshot()

	assertNoError(t, repo.SaveSnapshot(ctx, want))

	got, err := repo.LoadSnapshot(ctx)
	assertNoError(t, err)

	t.Run("order is preserved", func(t *testing.T) {
		var refs []string
		for _, c := range got.Components {
			refs = append(refs, c.Ref)
		}
		assertEqual(t, []string{"/local.host_cxt/Std0.rtc", "/local.host_cxt/Zombie0.rtc", "/local.host_cxt/Motor0.rtc"}, refs)
	})

	t.Run("flags survive", func(t *testing.T) {
		assertEqual(t, false, got.Components[1].Alive)
		assertEqual(t, true, got.Components[2].FailOnActivate)
		assertEqual(t, "127.0.0.1:9000", got.Components[2].Component.Endpoint)
	})

	t.Run("profiles survive", func(t *testing.T) {
		assertEqual(t, want.Components[0].Component, got.Components[0].Component)
		assertEqual(t, want.Managers[0].Manager, got.Managers[0].Manager)
		assertEqual(t, want.Contexts, got.Contexts)
	})
}

func TestSaveSnapshotReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.SaveSnapshot(ctx, testSnapshot()))

	smaller := testSnapshot()
	smaller.Components = smaller.Components[:1]
	smaller.Managers = nil
	assertNoError(t, repo.SaveSnapshot(ctx, smaller))

	got, err := repo.LoadSnapshot(ctx)
	assertNoError(t, err)
	assertEqual(t, 1, len(got.Components))
	assertEqual(t, 0, len(got.Managers))
}

// ============================================================================
// Journal Tests
// ============================================================================

func TestEventJournal(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	assertNoError(t, repo.RecordEvent(ctx, repository.EventRecord{Type: "connected", Ref: "/a.rtc:out", Payload: map[string]string{"id": "c0"}}))
	assertNoError(t, repo.RecordEvent(ctx, repository.EventRecord{Type: "exited", Ref: "/a.rtc"}))
	assertNoError(t, repo.RecordEvent(ctx, repository.EventRecord{Type: "snapshot_loaded"}))

	t.Run("newest first", func(t *testing.T) {
		events, err := repo.ListEvents(ctx, 0)
		assertNoError(t, err)
		assertEqual(t, 3, len(events))
		assertEqual(t, "snapshot_loaded", events[0].Type)
		assertEqual(t, "", events[0].Ref)
		assertEqual(t, "c0", events[2].Payload["id"])
	})

	t.Run("limit", func(t *testing.T) {
		events, err := repo.ListEvents(ctx, 2)
		assertNoError(t, err)
		assertEqual(t, 2, len(events))
		assertEqual(t, "exited", events[1].Type)
	})
}

package action_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtshell/internal/action"
	"rtshell/internal/domain"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/service"
	"rtshell/internal/testutil"
	"rtshell/internal/tree"
)

const cxt = "/localhost/local.host_cxt"

type fixture struct {
	reg *service.Registry
	x   *action.Executor
	reg2 func() *tree.Tree
}

// resolve resolves against a fresh tree so every lookup sees current state
func (f *fixture) resolve(t *testing.T, path string, allowZombie bool) *resolver.Resolved {
	t.Helper()
	res, err := resolver.ResolvePath(context.Background(), f.reg2(), path, "/", resolver.Options{AllowZombie: allowZombie})
	require.NoError(t, err)
	return res
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := testutil.DemoRegistry(t)
	newTree := func() *tree.Tree {
		return tree.New([]string{"localhost"}, testutil.Dialer(reg, "localhost"))
	}
	return &fixture{reg: reg, x: action.NewExecutor(newTree(), nil), reg2: newTree}
}

func TestChangeState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	std := f.resolve(t, cxt+"/Std0.rtc", false)
	require.NoError(t, f.x.ChangeState(ctx, std, 0, domain.TransitionActivate))
	state, err := f.x.State(ctx, f.resolve(t, cxt+"/Std0.rtc", false), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, state)

	errComp := f.resolve(t, cxt+"/Err0.rtc", false)
	require.NoError(t, f.x.ChangeState(ctx, errComp, 0, domain.TransitionActivate))
	state, err = f.x.State(ctx, f.resolve(t, cxt+"/Err0.rtc", false), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StateError, state)

	require.NoError(t, f.x.ChangeState(ctx, errComp, 0, domain.TransitionReset))
	state, err = f.x.State(ctx, f.resolve(t, cxt+"/Err0.rtc", false), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInactive, state)

	err = f.x.ChangeState(ctx, std, 3, domain.TransitionActivate)
	require.Error(t, err)
	assert.True(t, rterror.IsKind(err, rterror.Remote))

	mgr := f.resolve(t, cxt+"/manager.mgr", false)
	err = f.x.ChangeState(ctx, mgr, 0, domain.TransitionActivate)
	assert.Equal(t, "Not a component: "+cxt+"/manager.mgr", err.Error())
}

func TestConfiguration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	std := f.resolve(t, cxt+"/Std0.rtc", false)

	sets, active, err := f.x.ConfigSets(ctx, std, false)
	require.NoError(t, err)
	assert.Equal(t, "default", active)
	ids := make([]string, 0, len(sets))
	for _, s := range sets {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"default", "set1", "set2"}, ids)

	tests := []struct {
		name        string
		set         string
		param       string
		allowHidden bool
		want        string
		wantErr     string
	}{
		{name: "active set", param: "param", want: "0"},
		{name: "named set", set: "set2", param: "param", want: "2"},
		{name: "hidden without flag", set: "__hidden__", param: "param", wantErr: "No such configuration set: __hidden__"},
		{name: "hidden with flag", set: "__hidden__", param: "param", allowHidden: true, want: "3"},
		{name: "missing set", set: "noset", param: "param", wantErr: "No such configuration set: noset"},
		{name: "missing parameter", param: "noparam", wantErr: "No such configuration parameter: noparam"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.x.GetParameter(ctx, std, tt.set, tt.param, tt.allowHidden)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	require.NoError(t, f.x.SetParameter(ctx, std, "set1", "param", "42", false))
	got, err := f.x.GetParameter(ctx, f.resolve(t, cxt+"/Std0.rtc", false), "set1", "param", false)
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	require.NoError(t, f.x.ActivateConfigSet(ctx, std, "set2", false))
	_, active, err = f.x.ConfigSets(ctx, f.resolve(t, cxt+"/Std0.rtc", false), false)
	require.NoError(t, err)
	assert.Equal(t, "set2", active)

	err = f.x.ActivateConfigSet(ctx, std, "__hidden__", false)
	assert.Equal(t, "No such configuration set: __hidden__", err.Error())

	err = f.x.ActivateConfigSet(ctx, std, "__hidden__", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SDOPackage.InternalError")
}

func TestConnectAndDisconnect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out := f.resolve(t, cxt+"/Output0.rtc:out", false)
	in := f.resolve(t, cxt+"/Std0.rtc:in", false)

	conn, created, err := f.x.Connect(ctx, out, in, action.ConnectOptions{ID: "c0", Properties: map[string]string{"dataport.subscription_type": "new"}})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "c0", conn.ID)
	assert.Equal(t, "new", conn.Properties["dataport.subscription_type"])

	// Same id between the same ports is left alone
	out = f.resolve(t, cxt+"/Output0.rtc:out", false)
	in = f.resolve(t, cxt+"/Std0.rtc:in", false)
	_, created, err = f.x.Connect(ctx, out, in, action.ConnectOptions{ID: "c0"})
	require.NoError(t, err)
	assert.False(t, created)

	// A different id makes a second connector
	_, created, err = f.x.Connect(ctx, out, in, action.ConnectOptions{ID: "c1"})
	require.NoError(t, err)
	assert.True(t, created)

	in = f.resolve(t, cxt+"/Std0.rtc:in", false)
	assert.Len(t, in.Port.Connectors, 2)

	errIn := f.resolve(t, cxt+"/Err0.rtc:in", false)
	out = f.resolve(t, cxt+"/Output0.rtc:out", false)

	err = f.x.Disconnect(ctx, out, errIn, "")
	assert.Equal(t, "No connection from "+cxt+"/Output0.rtc:out to "+cxt+"/Err0.rtc:in", err.Error())

	err = f.x.Disconnect(ctx, out, in, "no_id")
	assert.Equal(t, "No connection from "+cxt+"/Output0.rtc:out with ID no_id", err.Error())

	require.NoError(t, f.x.Disconnect(ctx, out, in, "c1"))
	in = f.resolve(t, cxt+"/Std0.rtc:in", false)
	require.Len(t, in.Port.Connectors, 1)
	assert.Equal(t, "c0", in.Port.Connectors[0].ID)

	require.NoError(t, f.x.Disconnect(ctx, f.resolve(t, cxt+"/Output0.rtc:out", false), nil, ""))
	in = f.resolve(t, cxt+"/Std0.rtc:in", false)
	assert.Empty(t, in.Port.Connectors)
}

func TestConnectWrongPolarity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.resolve(t, cxt+"/Std0.rtc:in", false)
	b := f.resolve(t, cxt+"/Err0.rtc:in", false)

	_, _, err := f.x.Connect(ctx, a, b, action.ConnectOptions{})
	require.Error(t, err)
	assert.Equal(t, "Wrong port type.", err.Error())
}

func TestDisconnectComponent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	out := f.resolve(t, cxt+"/Output0.rtc:out", false)
	for _, target := range []string{"/Std0.rtc:in", "/Err0.rtc:in"} {
		_, _, err := f.x.Connect(ctx, out, f.resolve(t, cxt+target, false), action.ConnectOptions{})
		require.NoError(t, err)
	}

	require.NoError(t, f.x.DisconnectComponent(ctx, f.resolve(t, cxt+"/Output0.rtc", false)))
	assert.Empty(t, f.resolve(t, cxt+"/Output0.rtc:out", false).Port.Connectors)
	assert.Empty(t, f.resolve(t, cxt+"/Err0.rtc:in", false).Port.Connectors)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "port", path: cxt + "/Std0.rtc:in", wantErr: "Undeletable object: " + cxt + "/Std0.rtc:in"},
		{name: "name server", path: "/localhost", wantErr: "Undeletable object: /localhost"},
		{name: "manager child", path: cxt + "/manager.mgr/Motor0.rtc", wantErr: "Parent not a directory: " + cxt + "/manager.mgr/Motor0.rtc"},
		{name: "zombie", path: cxt + "/Zombie0.rtc"},
		{name: "component", path: cxt + "/Std0.rtc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.x.Delete(ctx, f.resolve(t, tt.path, true))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			_, err = resolver.ResolvePath(ctx, f.reg2(), tt.path, "/", resolver.Options{AllowZombie: true})
			assert.True(t, rterror.IsKind(err, rterror.NoSuchObject))
		})
	}
}

func TestExit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.x.Exit(ctx, f.resolve(t, cxt+"/Std0.rtc", false)))
	res := f.resolve(t, cxt+"/Std0.rtc", true)
	assert.Equal(t, tree.KindZombie, res.Kind)
}

func TestManagerOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mgr := f.resolve(t, cxt+"/manager.mgr", false)
	const motor = "/usr/local/share/OpenRTM-aist/examples/rtcs/Motor.so"

	err := f.x.LoadModule(ctx, mgr, motor, "")
	assert.Equal(t, "No initialisation function specified.", err.Error())

	require.NoError(t, f.x.UnloadModule(ctx, mgr, motor))
	_, err = f.x.CreateComponent(ctx, mgr, "Motor")
	assert.Error(t, err)

	require.NoError(t, f.x.LoadModule(ctx, mgr, motor, "MotorInit"))
	ref, err := f.x.CreateComponent(ctx, mgr, "Motor")
	require.NoError(t, err)
	assert.Equal(t, "/local.host_cxt/Motor1.rtc", ref)

	require.NoError(t, f.x.DeleteComponent(ctx, mgr, "Sensor0"))
	_, err = resolver.ResolvePath(ctx, f.reg2(), cxt+"/manager.mgr/Sensor0.rtc", "/", resolver.Options{})
	assert.True(t, rterror.IsKind(err, rterror.NoSuchObject))

	std := f.resolve(t, cxt+"/Std0.rtc", false)
	err = f.x.LoadModule(ctx, std, motor, "MotorInit")
	assert.Equal(t, "Not a manager: "+cxt+"/Std0.rtc", err.Error())
}

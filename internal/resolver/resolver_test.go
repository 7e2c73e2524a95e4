package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/testutil"
	"rtshell/internal/tree"
)

const cxt = "/localhost/local.host_cxt"

func newTree(t *testing.T) *tree.Tree {
	t.Helper()
	reg := testutil.DemoRegistry(t)
	return tree.New([]string{"localhost"}, testutil.Dialer(reg, "localhost"))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		cwd         string
		allowZombie bool
		wantKind    tree.Kind
		wantPath    string
		wantErr     string
	}{
		{name: "empty is cwd root", path: "", wantKind: tree.KindDirectory, wantPath: "/"},
		{name: "root", path: "/", wantKind: tree.KindDirectory, wantPath: "/"},
		{name: "name server", path: "/localhost", wantKind: tree.KindDirectory, wantPath: "/localhost"},
		{name: "context with slash", path: cxt + "/", wantKind: tree.KindDirectory, wantPath: cxt},
		{name: "component", path: cxt + "/Std0.rtc", wantKind: tree.KindComponent, wantPath: cxt + "/Std0.rtc"},
		{name: "relative", path: "Std0.rtc", cwd: cxt, wantKind: tree.KindComponent, wantPath: cxt + "/Std0.rtc"},
		{name: "dot dot", path: "../local.host_cxt/Std0.rtc", cwd: cxt, wantKind: tree.KindComponent, wantPath: cxt + "/Std0.rtc"},
		{name: "port", path: cxt + "/Std0.rtc:in", wantKind: tree.KindPort, wantPath: cxt + "/Std0.rtc:in"},
		{name: "manager", path: cxt + "/manager.mgr/", wantKind: tree.KindManager, wantPath: cxt + "/manager.mgr"},
		{name: "manager child", path: cxt + "/manager.mgr/Motor0.rtc", wantKind: tree.KindComponent, wantPath: cxt + "/manager.mgr/Motor0.rtc"},
		{name: "zombie allowed", path: cxt + "/Zombie0.rtc", allowZombie: true, wantKind: tree.KindZombie, wantPath: cxt + "/Zombie0.rtc"},

		{name: "missing object", path: cxt + "/NotAComp0.rtc", wantErr: "No such object: " + cxt + "/NotAComp0.rtc"},
		{name: "missing reports walked prefix", path: "/localhost/nowhere/deeper/Std0.rtc", wantErr: "No such object: /localhost/nowhere"},
		{name: "missing port owner", path: cxt + "/NotAComp0.rtc:in", wantErr: "No such object: " + cxt + "/NotAComp0.rtc"},
		{name: "component with slash", path: cxt + "/Std0.rtc/", wantErr: "Not a directory: " + cxt + "/Std0.rtc"},
		{name: "port with slash", path: cxt + "/Std0.rtc:in/", wantErr: "Not a directory: " + cxt + "/Std0.rtc:in"},
		{name: "through a component", path: cxt + "/Std0.rtc/child", wantErr: "Not a directory: " + cxt + "/Std0.rtc"},
		{name: "zombie", path: cxt + "/Zombie0.rtc", wantErr: "Zombie object: " + cxt + "/Zombie0.rtc"},
		{name: "below zombie", path: cxt + "/Zombie0.rtc/x", allowZombie: true, wantErr: "Zombie object: " + cxt + "/Zombie0.rtc"},
		{name: "zombie port", path: cxt + "/Zombie0.rtc:in", allowZombie: true, wantErr: "Not a component: " + cxt + "/Zombie0.rtc:in"},
		{name: "port on manager", path: cxt + "/manager.mgr:port", wantErr: "Not a component: " + cxt + "/manager.mgr:port"},
		{name: "port on context", path: cxt + ":port", wantErr: "Not a component: " + cxt + ":port"},
		{name: "port without object", path: cxt + "/:port", wantErr: "No such object: " + cxt + "/:port"},
		{name: "missing port", path: cxt + "/Std0.rtc:out", wantErr: "Port not found: " + cxt + "/Std0.rtc:out"},
		{name: "glob is not expanded", path: cxt + "/Std*", wantErr: "No such object: " + cxt + "/Std*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTree(t)
			res, err := resolver.ResolvePath(context.Background(), tr, tt.path, tt.cwd,
				resolver.Options{AllowZombie: tt.allowZombie})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantPath, res.FullPath)
		})
	}
}

func TestResolvePortCarriesComponent(t *testing.T) {
	tr := newTree(t)
	res, err := resolver.ResolvePath(context.Background(), tr, cxt+"/Output0.rtc:out", "/", resolver.Options{})
	require.NoError(t, err)
	require.NotNil(t, res.Component)
	assert.Equal(t, "Output0", res.Component.InstanceName)
	assert.Equal(t, "/local.host_cxt/Output0.rtc", res.PortRef().Ref)
	assert.Equal(t, "out", res.PortRef().Port)
}

func TestResolveUnreachableServer(t *testing.T) {
	reg := testutil.DemoRegistry(t)
	tr := tree.New([]string{"localhost", "faraway"}, testutil.Dialer(reg, "localhost"))
	_, err := resolver.ResolvePath(context.Background(), tr, "/faraway/x_cxt/Std0.rtc", "/", resolver.Options{})
	require.Error(t, err)
	assert.True(t, rterror.IsKind(err, rterror.Unreachable))
}

func TestFind(t *testing.T) {
	tests := []struct {
		name string
		opts resolver.FindOptions
		want []string
	}{
		{"exact name", resolver.FindOptions{Name: "Std0.rtc"}, []string{cxt + "/Std0.rtc"}},
		{"exact name is case sensitive", resolver.FindOptions{Name: "std0.rtc"}, nil},
		{"iname", resolver.FindOptions{IName: "std0.rtc"}, []string{cxt + "/Std0.rtc"}},
		{"part name", resolver.FindOptions{Name: "*d0.rtc"}, []string{cxt + "/Std0.rtc"}},
		{"managers", resolver.FindOptions{Types: "m"}, []string{cxt + "/manager.mgr"}},
		{"name servers", resolver.FindOptions{Types: "n"}, []string{"/localhost"}},
		{"zombies", resolver.FindOptions{Types: "z"}, []string{cxt + "/Zombie0.rtc"}},
		{"directories", resolver.FindOptions{Types: "d"}, []string{"/localhost", cxt, cxt + "/manager.mgr"}},
		{"too shallow", resolver.FindOptions{Name: "Std0.rtc", MaxDepth: 1}, nil},
		{"deep enough", resolver.FindOptions{Name: "Std0.rtc", MaxDepth: 3}, []string{cxt + "/Std0.rtc"}},
		{"components under manager", resolver.FindOptions{Name: "Motor*", Types: "c"}, []string{
			cxt + "/Motor0.rtc", cxt + "/manager.mgr/Motor0.rtc",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTree(t)
			found, err := resolver.Find(context.Background(), tr, tr.Root(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, found)
		})
	}
}

func TestFindRejectsUnknownType(t *testing.T) {
	tr := newTree(t)
	_, err := resolver.Find(context.Background(), tr, tr.Root(), resolver.FindOptions{Types: "x"})
	assert.Error(t, err)
}

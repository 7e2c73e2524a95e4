package tree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtshell/internal/rterror"
	"rtshell/internal/testutil"
	"rtshell/internal/tree"
)

func newDemoTree(t *testing.T) *tree.Tree {
	t.Helper()
	reg := testutil.DemoRegistry(t)
	return tree.New([]string{"localhost"}, testutil.Dialer(reg, "localhost"))
}

func names(nodes []*tree.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestChildren(t *testing.T) {
	ctx := context.Background()
	tr := newDemoTree(t)

	servers, err := tr.Children(ctx, tr.Root())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.True(t, servers[0].NameServer)
	assert.Equal(t, "/localhost", servers[0].Path)

	cxts, err := tr.Children(ctx, servers[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"local.host_cxt"}, names(cxts))

	objs, err := tr.Children(ctx, cxts[0])
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Std0.rtc", "Output0.rtc", "Err0.rtc", "Zombie0.rtc",
		"Controller0.rtc", "Sensor0.rtc", "Motor0.rtc", "manager.mgr",
	}, names(objs))

	kinds := map[string]tree.Kind{}
	for _, o := range objs {
		kinds[o.Name] = o.Kind
	}
	assert.Equal(t, tree.KindComponent, kinds["Std0.rtc"])
	assert.Equal(t, tree.KindZombie, kinds["Zombie0.rtc"])
	assert.Equal(t, tree.KindManager, kinds["manager.mgr"])
}

func TestManagerChildren(t *testing.T) {
	ctx := context.Background()
	tr := newDemoTree(t)

	servers, err := tr.Children(ctx, tr.Root())
	require.NoError(t, err)
	cxt, err := tr.Child(ctx, servers[0], "local.host_cxt")
	require.NoError(t, err)
	mgr, err := tr.Child(ctx, cxt, "manager.mgr")
	require.NoError(t, err)
	require.NotNil(t, mgr)

	children, err := tr.Children(ctx, mgr)
	require.NoError(t, err)
	assert.Equal(t, []string{"Controller0.rtc", "Sensor0.rtc", "Motor0.rtc"}, names(children))
	assert.Equal(t, "/localhost/local.host_cxt/manager.mgr/Motor0.rtc", children[2].Path)
	assert.Equal(t, "/local.host_cxt/Motor0.rtc", children[2].Ref)
}

func TestChildrenOfComponent(t *testing.T) {
	ctx := context.Background()
	tr := newDemoTree(t)

	servers, err := tr.Children(ctx, tr.Root())
	require.NoError(t, err)
	cxt, err := tr.Child(ctx, servers[0], "local.host_cxt")
	require.NoError(t, err)
	std, err := tr.Child(ctx, cxt, "Std0.rtc")
	require.NoError(t, err)

	_, err = tr.Children(ctx, std)
	assert.True(t, rterror.IsKind(err, rterror.NotADirectory))
}

func TestUnreachableServer(t *testing.T) {
	ctx := context.Background()
	reg := testutil.DemoRegistry(t)
	tr := tree.New([]string{"localhost", "faraway"}, testutil.Dialer(reg, "localhost"))

	servers, err := tr.Children(ctx, tr.Root())
	require.NoError(t, err)
	require.Len(t, servers, 2)

	_, err = tr.Children(ctx, servers[1])
	require.Error(t, err)
	assert.True(t, rterror.IsKind(err, rterror.Unreachable))
	assert.Equal(t, "Object unreachable: /faraway", err.Error())
}

func TestFindByName(t *testing.T) {
	ctx := context.Background()
	tr := newDemoTree(t)
	servers, err := tr.Children(ctx, tr.Root())
	require.NoError(t, err)
	cxt, err := tr.Child(ctx, servers[0], "local.host_cxt")
	require.NoError(t, err)

	tests := []struct {
		name    string
		pattern string
		glob    bool
		fold    bool
		want    []string
	}{
		{"exact", "Std0.rtc", false, false, []string{"Std0.rtc"}},
		{"exact is case sensitive", "std0.rtc", false, false, nil},
		{"exact folded", "std0.rtc", false, true, []string{"Std0.rtc"}},
		{"star", "S*", true, false, []string{"Std0.rtc", "Sensor0.rtc"}},
		{"question", "Std?.rtc", true, false, []string{"Std0.rtc"}},
		{"bracket", "[EO]*0.rtc", true, false, []string{"Output0.rtc", "Err0.rtc"}},
		{"glob folded", "*R0.RTC", true, true, []string{"Err0.rtc", "Controller0.rtc", "Sensor0.rtc", "Motor0.rtc"}},
		{"glob folded narrow", "*LER0.RTC", true, true, []string{"Controller0.rtc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := tr.FindByName(ctx, cxt, tt.pattern, tt.glob, tt.fold)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, found)
				return
			}
			assert.Equal(t, tt.want, names(found))
		})
	}
}

func TestWalkDepth(t *testing.T) {
	ctx := context.Background()
	tr := newDemoTree(t)

	var shallow []string
	err := tr.Walk(ctx, tr.Root(), 2, func(n *tree.Node, depth int) error {
		shallow = append(shallow, n.Path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/localhost", "/localhost/local.host_cxt"}, shallow)

	var deep []string
	err = tr.Walk(ctx, tr.Root(), -1, func(n *tree.Node, depth int) error {
		if depth == 4 {
			deep = append(deep, n.Path)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/localhost/local.host_cxt/manager.mgr/Controller0.rtc",
		"/localhost/local.host_cxt/manager.mgr/Sensor0.rtc",
		"/localhost/local.host_cxt/manager.mgr/Motor0.rtc",
	}, deep)
}

func TestClassifyAfterExit(t *testing.T) {
	ctx := context.Background()
	reg := testutil.DemoRegistry(t)
	tr := tree.New([]string{"localhost"}, testutil.Dialer(reg, "localhost"))

	servers, err := tr.Children(ctx, tr.Root())
	require.NoError(t, err)
	cxt, err := tr.Child(ctx, servers[0], "local.host_cxt")
	require.NoError(t, err)
	std, err := tr.Child(ctx, cxt, "Std0.rtc")
	require.NoError(t, err)
	require.Equal(t, tree.KindComponent, std.Kind)

	require.NoError(t, reg.Exit(ctx, "/local.host_cxt/Std0.rtc"))

	kind, err := tr.Classify(ctx, std)
	require.NoError(t, err)
	assert.Equal(t, tree.KindZombie, kind)

	_, err = tr.Component(ctx, std)
	assert.True(t, rterror.IsKind(err, rterror.NotAComponent))
}

func TestComponentProfile(t *testing.T) {
	ctx := context.Background()
	tr := newDemoTree(t)
	servers, err := tr.Children(ctx, tr.Root())
	require.NoError(t, err)
	cxt, err := tr.Child(ctx, servers[0], "local.host_cxt")
	require.NoError(t, err)
	std, err := tr.Child(ctx, cxt, "Std0.rtc")
	require.NoError(t, err)

	comp, err := tr.Component(ctx, std)
	require.NoError(t, err)
	assert.Equal(t, "RTC:Geoffrey Biggs:test:Std:1.0", comp.TypeID())

	mgrNode, err := tr.Child(ctx, cxt, "manager.mgr")
	require.NoError(t, err)
	mgr, err := tr.Manager(ctx, mgrNode)
	require.NoError(t, err)
	assert.Equal(t, "manager", mgr.Name)

	_, err = tr.Manager(ctx, std)
	assert.True(t, rterror.IsKind(err, rterror.NotAManager))
}

// Package tree models the live object tree seen through one or more name
// servers.
//
// The root lists the configured name servers. Below a server, naming
// contexts are directories and object bindings are classified by probing
// them: components, managers, or zombies when the probe fails. A manager is
// directory-like; its children are the components it owns, not naming
// entries.
//
// Children are fetched lazily and cached for the lifetime of the Tree. A
// Tree belongs to one command invocation and is not safe for concurrent use.
package tree

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"rtshell/internal/domain"
	"rtshell/internal/naming"
	"rtshell/internal/rterror"
)

// Kind is the classification of a node
type Kind int

const (
	KindDirectory Kind = iota + 1
	KindComponent
	KindManager
	KindPort
	KindZombie
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindComponent:
		return "component"
	case KindManager:
		return "manager"
	case KindPort:
		return "port"
	case KindZombie:
		return "zombie"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is one entry of the tree
type Node struct {
	Name string
	// Path is the absolute rtshell path, e.g. /localhost/local.host_cxt/Std0.rtc
	Path string
	Kind Kind
	// Server is the name server the node lives on; empty for the root
	Server string
	// Ref is the server-relative reference; "/" for a name server
	Ref string
	// NameServer marks the directories directly under the root
	NameServer bool

	parent   *Node
	children []*Node
	loaded   bool
}

// Parent returns the node's parent, nil for the root
func (n *Node) Parent() *Node {
	return n.parent
}

// IsDirectory reports whether the node can hold children
func (n *Node) IsDirectory() bool {
	return n.Kind == KindDirectory || n.Kind == KindManager
}

// IsRoot reports whether the node is the naming root
func (n *Node) IsRoot() bool {
	return n.parent == nil
}

// Tree is a lazily populated view of the naming tree
type Tree struct {
	servers  []string
	dial     naming.Dialer
	root     *Node
	services map[string]naming.Service
	logger   *zap.Logger
}

// Option configures a Tree
type Option func(*Tree)

// WithLogger sets the tree's logger
func WithLogger(l *zap.Logger) Option {
	return func(t *Tree) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a tree rooted at the given name servers
func New(servers []string, dial naming.Dialer, opts ...Option) *Tree {
	t := &Tree{
		servers:  servers,
		dial:     dial,
		root:     &Node{Name: "/", Path: "/", Kind: KindDirectory},
		services: make(map[string]naming.Service),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Root returns the naming root
func (t *Tree) Root() *Node {
	return t.root
}

// Service returns the naming service of a server, dialling it on first use
func (t *Tree) Service(ctx context.Context, server string) (naming.Service, error) {
	if svc, ok := t.services[server]; ok {
		return svc, nil
	}
	svc, err := t.dial(ctx, server)
	if err != nil {
		return nil, rterror.Wrap(rterror.Unreachable, err, "/"+server)
	}
	t.services[server] = svc
	return svc, nil
}

// Children lists a directory-like node, fetching it on first use
func (t *Tree) Children(ctx context.Context, n *Node) ([]*Node, error) {
	if !n.IsDirectory() {
		return nil, rterror.New(rterror.NotADirectory, n.Path)
	}
	if n.loaded {
		return n.children, nil
	}

	var (
		children []*Node
		err      error
	)
	switch {
	case n.IsRoot():
		children = t.serverNodes()
	case n.Kind == KindManager:
		children, err = t.managerChildren(ctx, n)
	default:
		children, err = t.contextChildren(ctx, n)
	}
	if err != nil {
		return nil, err
	}

	n.children = children
	n.loaded = true
	t.logger.Debug("listed node", zap.String("path", n.Path), zap.Int("children", len(children)))
	return children, nil
}

func (t *Tree) serverNodes() []*Node {
	nodes := make([]*Node, 0, len(t.servers))
	for _, s := range t.servers {
		nodes = append(nodes, &Node{
			Name:       s,
			Path:       "/" + s,
			Kind:       KindDirectory,
			Server:     s,
			Ref:        "/",
			NameServer: true,
			parent:     t.root,
		})
	}
	return nodes
}

func (t *Tree) contextChildren(ctx context.Context, n *Node) ([]*Node, error) {
	svc, err := t.Service(ctx, n.Server)
	if err != nil {
		return nil, err
	}
	bindings, err := svc.List(ctx, n.Ref)
	if err != nil {
		return nil, t.remoteError(err, n.Path)
	}
	return t.bindingNodes(ctx, svc, n, bindings), nil
}

func (t *Tree) managerChildren(ctx context.Context, n *Node) ([]*Node, error) {
	svc, err := t.Service(ctx, n.Server)
	if err != nil {
		return nil, err
	}
	mgr, err := svc.Manager(ctx, n.Ref)
	if err != nil {
		return nil, t.remoteError(err, n.Path)
	}
	return t.bindingNodes(ctx, svc, n, mgr.Components), nil
}

func (t *Tree) bindingNodes(ctx context.Context, svc naming.Service, parent *Node, bindings []domain.Binding) []*Node {
	nodes := make([]*Node, 0, len(bindings))
	for _, b := range bindings {
		node := &Node{
			Name:   b.Name,
			Path:   childPath(parent.Path, b.Name),
			Kind:   KindDirectory,
			Server: parent.Server,
			Ref:    b.Ref,
			parent: parent,
		}
		if !b.IsContext() {
			kind, ok := classify(ctx, svc, b.Ref)
			if !ok {
				// Unbound between listing and probing
				continue
			}
			node.Kind = kind
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// Classify re-probes an object node and updates its kind. Directories are
// returned unchanged. A node whose binding has vanished yields NoSuchObject.
func (t *Tree) Classify(ctx context.Context, n *Node) (Kind, error) {
	if n.Kind == KindDirectory || n.Kind == KindPort {
		return n.Kind, nil
	}
	svc, err := t.Service(ctx, n.Server)
	if err != nil {
		return 0, err
	}
	kind, ok := classify(ctx, svc, n.Ref)
	if !ok {
		return 0, rterror.New(rterror.NoSuchObject, n.Path)
	}
	n.Kind = kind
	return kind, nil
}

// classify probes ref. Any probe failure other than an unbound reference
// makes the object a zombie.
func classify(ctx context.Context, svc naming.Service, ref string) (Kind, bool) {
	kind, err := svc.Probe(ctx, ref)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return 0, false
	case err != nil:
		return KindZombie, true
	case kind == domain.ObjectManager:
		return KindManager, true
	default:
		return KindComponent, true
	}
}

// Child returns the child of n with exactly the given name, or nil
func (t *Tree) Child(ctx context.Context, n *Node, name string) (*Node, error) {
	children, err := t.Children(ctx, n)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, nil
}

// FindByName returns the children of n matching pattern. Without glob the
// match is exact; with glob the pattern uses path.Match syntax. Matching is
// case-sensitive unless fold is set.
func (t *Tree) FindByName(ctx context.Context, n *Node, pattern string, glob, fold bool) ([]*Node, error) {
	children, err := t.Children(ctx, n)
	if err != nil {
		return nil, err
	}
	var found []*Node
	for _, c := range children {
		ok, err := MatchName(pattern, c.Name, glob, fold)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, c)
		}
	}
	return found, nil
}

// MatchName matches one name against a pattern
func MatchName(pattern, name string, glob, fold bool) (bool, error) {
	if fold {
		pattern = strings.ToLower(pattern)
		name = strings.ToLower(name)
	}
	if !glob {
		return pattern == name, nil
	}
	ok, err := path.Match(pattern, name)
	if err != nil {
		return false, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	return ok, nil
}

// WalkFunc is called for every node visited by Walk. Depth is 0 for the
// starting node.
type WalkFunc func(n *Node, depth int) error

// Walk visits n and its descendants depth-first in discovery order, down to
// maxDepth levels below n. A negative maxDepth means no limit.
func (t *Tree) Walk(ctx context.Context, n *Node, maxDepth int, fn WalkFunc) error {
	return t.walk(ctx, n, 0, maxDepth, fn)
}

func (t *Tree) walk(ctx context.Context, n *Node, depth, maxDepth int, fn WalkFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(n, depth); err != nil {
		return err
	}
	if !n.IsDirectory() || (maxDepth >= 0 && depth >= maxDepth) {
		return nil
	}
	children, err := t.Children(ctx, n)
	if err != nil {
		if rterror.IsKind(err, rterror.Unreachable) {
			t.logger.Warn("skipping unreachable node", zap.String("path", n.Path), zap.Error(err))
			return nil
		}
		return err
	}
	for _, c := range children {
		if err := t.walk(ctx, c, depth+1, maxDepth, fn); err != nil {
			return err
		}
	}
	return nil
}

// Component fetches the live profile of a component node
func (t *Tree) Component(ctx context.Context, n *Node) (*domain.Component, error) {
	if n.Kind != KindComponent {
		return nil, rterror.New(rterror.NotAComponent, n.Path)
	}
	svc, err := t.Service(ctx, n.Server)
	if err != nil {
		return nil, err
	}
	comp, err := svc.Component(ctx, n.Ref)
	if err != nil {
		return nil, t.remoteError(err, n.Path)
	}
	return comp, nil
}

// Manager fetches the live profile of a manager node
func (t *Tree) Manager(ctx context.Context, n *Node) (*domain.Manager, error) {
	if n.Kind != KindManager {
		return nil, rterror.New(rterror.NotAManager, n.Path)
	}
	svc, err := t.Service(ctx, n.Server)
	if err != nil {
		return nil, err
	}
	mgr, err := svc.Manager(ctx, n.Ref)
	if err != nil {
		return nil, t.remoteError(err, n.Path)
	}
	return mgr, nil
}

// Invalidate drops the cached children of n so the next listing refetches them
func (t *Tree) Invalidate(n *Node) {
	n.children = nil
	n.loaded = false
}

// PortPath renders a server-relative port reference as an absolute path
func PortPath(server string, p domain.PortRef) string {
	return "/" + server + p.Ref + ":" + p.Port
}

// ObjectPath renders a server-relative object reference as an absolute path
func ObjectPath(server, ref string) string {
	return "/" + server + ref
}

// remoteError classifies a failed remote call on the object at p
func (t *Tree) remoteError(err error, p string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return rterror.Wrap(rterror.NoSuchObject, err, p)
	case errors.Is(err, domain.ErrDefunct):
		return rterror.Wrap(rterror.ZombieObject, err, p)
	case errors.Is(err, domain.ErrNotContext):
		return rterror.Wrap(rterror.NotADirectory, err, p)
	case errors.Is(err, domain.ErrNotComponent):
		return rterror.Wrap(rterror.NotAComponent, err, p)
	case errors.Is(err, domain.ErrNotManager):
		return rterror.Wrap(rterror.NotAManager, err, p)
	case domain.ErrorCode(err) != "":
		return rterror.Wrap(rterror.Remote, err, err.Error())
	}
	t.logger.Debug("remote call failed", zap.String("path", p), zap.Error(err))
	return rterror.Wrap(rterror.Unreachable, err, p)
}

func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// Package resolver turns parsed addresses into live tree nodes.
//
// Resolution walks the context segments from the root, then looks up the
// object and, when present, its port. Errors are classified with rterror and
// name the path walked so far, so a partially resolved prefix is reported
// as reached rather than as typed.
package resolver

import (
	"context"

	"rtshell/internal/address"
	"rtshell/internal/domain"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

// Options tune a resolution
type Options struct {
	// AllowZombie lets a zombie object resolve instead of failing ZombieObject
	AllowZombie bool
}

// Resolved is the result of a successful resolution
type Resolved struct {
	Node *tree.Node
	Kind tree.Kind
	// FullPath is the canonical path including the port, if any
	FullPath string
	// Port is set for port resolutions, along with the owning component in Node
	Port *domain.Port
	// Component is the owning component's profile for port resolutions
	Component *domain.Component
}

// PortRef returns the server-relative reference of a resolved port
func (r *Resolved) PortRef() domain.PortRef {
	if r.Port == nil {
		return domain.PortRef{}
	}
	return domain.PortRef{Ref: r.Node.Ref, Port: r.Port.Name}
}

// Resolve resolves addr against the root of t
func Resolve(ctx context.Context, t *tree.Tree, addr address.Address, opts Options) (*Resolved, error) {
	cur := t.Root()
	for _, seg := range addr.Context {
		next, err := step(ctx, t, cur, seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	if addr.Object == "" {
		if addr.HasPort {
			return nil, rterror.New(rterror.NoSuchObject, join(cur.Path, "")+":"+addr.Port)
		}
		return &Resolved{Node: cur, Kind: cur.Kind, FullPath: cur.Path}, nil
	}

	node, err := step(ctx, t, cur, addr.Object)
	if err != nil {
		return nil, err
	}
	kind, err := t.Classify(ctx, node)
	if err != nil {
		return nil, err
	}

	if kind == tree.KindZombie && !opts.AllowZombie {
		return nil, rterror.New(rterror.ZombieObject, node.Path)
	}

	if addr.HasPort {
		portPath := node.Path + ":" + addr.Port
		if kind != tree.KindComponent {
			return nil, rterror.New(rterror.NotAComponent, portPath)
		}
		comp, err := t.Component(ctx, node)
		if err != nil {
			return nil, err
		}
		port := comp.Port(addr.Port)
		if port == nil {
			return nil, rterror.New(rterror.PortNotFound, portPath)
		}
		if addr.TrailingSlash {
			return nil, rterror.New(rterror.NotADirectory, portPath)
		}
		return &Resolved{Node: node, Kind: tree.KindPort, FullPath: portPath, Port: port, Component: comp}, nil
	}

	if addr.TrailingSlash && !node.IsDirectory() {
		return nil, rterror.New(rterror.NotADirectory, node.Path)
	}
	return &Resolved{Node: node, Kind: kind, FullPath: node.Path}, nil
}

// step descends from cur to its child called name
func step(ctx context.Context, t *tree.Tree, cur *tree.Node, name string) (*tree.Node, error) {
	if !cur.IsDirectory() {
		if kind, err := t.Classify(ctx, cur); err == nil && kind == tree.KindZombie {
			return nil, rterror.New(rterror.ZombieObject, cur.Path)
		}
		return nil, rterror.New(rterror.NotADirectory, cur.Path)
	}
	child, err := t.Child(ctx, cur, name)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, rterror.New(rterror.NoSuchObject, join(cur.Path, name))
	}
	return child, nil
}

// ResolvePath parses raw against cwd and resolves it
func ResolvePath(ctx context.Context, t *tree.Tree, raw, cwd string, opts Options) (*Resolved, error) {
	return Resolve(ctx, t, address.Parse(raw, cwd), opts)
}

func join(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

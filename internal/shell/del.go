package shell

import (
	"context"

	"go.uber.org/zap"

	"rtshell/internal/address"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

const delUsage = "rtdel [options] <path>"

// Delete unbinds the object at raw. With zombiesOnly set the object must
// be a zombie, and an empty raw removes every zombie below the working
// context.
func (s *Shell) Delete(ctx context.Context, raw string, zombiesOnly bool) error {
	if raw == "" {
		if !zombiesOnly {
			return rterror.New(rterror.Usage, delUsage)
		}
		return s.deleteZombies(ctx)
	}

	// A trailing slash does not stop an object being deleted
	addr := address.Parse(raw, s.cwd)
	addr.TrailingSlash = false
	res, err := resolver.Resolve(ctx, s.tree, addr, resolver.Options{AllowZombie: true})
	if err != nil {
		return typed(err, addr)
	}
	if zombiesOnly && res.Kind != tree.KindZombie {
		return rterror.New(rterror.NotAZombie, addr.Raw)
	}
	return typed(s.exec.Delete(ctx, res), addr)
}

func (s *Shell) deleteZombies(ctx context.Context) error {
	start, err := resolver.ResolvePath(ctx, s.tree, "", s.cwd, resolver.Options{})
	if err != nil {
		return err
	}
	var zombies []*tree.Node
	err = s.tree.Walk(ctx, start.Node, -1, func(n *tree.Node, _ int) error {
		if n.Kind != tree.KindZombie {
			return nil
		}
		if p := n.Parent(); p != nil && p.Kind == tree.KindManager {
			return nil
		}
		zombies = append(zombies, n)
		return nil
	})
	if err != nil {
		return err
	}
	for _, n := range zombies {
		s.logger.Debug("deleting zombie", zap.String("path", n.Path))
		err := s.exec.Delete(ctx, &resolver.Resolved{Node: n, Kind: n.Kind, FullPath: n.Path})
		if err != nil {
			return err
		}
	}
	return nil
}

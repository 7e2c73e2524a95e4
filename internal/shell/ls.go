package shell

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

// ListOptions control the listing format
type ListOptions struct {
	// Long prints state and port counts for every entry
	Long bool
	// Recurse lists every directory below the given ones
	Recurse bool
}

// List prints the contents of each directory, or the entry itself for an
// object. With no paths the working context is listed.
func (s *Shell) List(ctx context.Context, paths []string, opts ListOptions) error {
	if len(paths) == 0 {
		paths = []string{""}
	}
	headers := opts.Recurse || len(paths) > 1
	first := true
	for _, p := range paths {
		addr, res, err := s.resolve(ctx, p, resolver.Options{AllowZombie: true})
		if err != nil {
			return remap(err, addr, rterror.NotADirectory, rterror.NoSuchObject)
		}
		if res.Kind == tree.KindPort {
			return rterror.New(rterror.CannotListPorts)
		}
		if !res.Node.IsDirectory() {
			if err := s.listBlock(ctx, "", []*tree.Node{res.Node}, opts.Long, &first); err != nil {
				return err
			}
			continue
		}
		if !opts.Recurse {
			children, err := s.tree.Children(ctx, res.Node)
			if err != nil {
				return err
			}
			header := ""
			if headers {
				header = res.Node.Path
			}
			if err := s.listBlock(ctx, header, children, opts.Long, &first); err != nil {
				return err
			}
			continue
		}
		err = s.tree.Walk(ctx, res.Node, -1, func(n *tree.Node, _ int) error {
			if !n.IsDirectory() {
				return nil
			}
			children, err := s.tree.Children(ctx, n)
			if err != nil {
				return err
			}
			return s.listBlock(ctx, n.Path, children, opts.Long, &first)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// listBlock prints one group of entries, preceded by "header:" when header
// is set. Blocks after the first are separated by a blank line.
func (s *Shell) listBlock(ctx context.Context, header string, nodes []*tree.Node, long bool, first *bool) error {
	if header != "" {
		if !*first {
			fmt.Fprintln(s.out)
		}
		fmt.Fprintf(s.out, "%s:\n", header)
	}
	*first = false
	if len(nodes) == 0 {
		return nil
	}
	if !long {
		names := make([]string, len(nodes))
		for i, n := range nodes {
			names[i] = shortName(n)
		}
		fmt.Fprintln(s.out, strings.Join(names, "  "))
		return nil
	}
	rows := make([][]string, len(nodes))
	for i, n := range nodes {
		rows[i] = s.longRow(ctx, n)
	}
	return table(s.out, "", rows)
}

func shortName(n *tree.Node) string {
	switch n.Kind {
	case tree.KindZombie:
		return "*" + n.Name
	case tree.KindDirectory:
		return n.Name + "/"
	}
	return n.Name
}

// longRow renders the state and the total/connected counts of all ports,
// then of in, out and service ports. Anything that is not a live component
// shows dashes.
func (s *Shell) longRow(ctx context.Context, n *tree.Node) []string {
	name := n.Name
	if n.Kind == tree.KindZombie {
		name = "*" + name
	}
	if n.Kind != tree.KindComponent {
		return []string{"-", "-", "-", "-", "-", name}
	}
	c, err := s.tree.Component(ctx, n)
	if err != nil {
		s.logger.Debug("component profile unavailable", zap.String("path", n.Path), zap.Error(err))
		return []string{"-", "-", "-", "-", "-", name}
	}
	total, connected := c.PortCounts()
	all, linked := 0, 0
	for _, p := range c.Ports {
		all++
		if len(p.Connectors) > 0 {
			linked++
		}
	}
	row := []string{string(c.State(0)), fmt.Sprintf("%d/%d", all, linked)}
	for i := range total {
		row = append(row, fmt.Sprintf("%d/%d", total[i], connected[i]))
	}
	return append(row, name)
}

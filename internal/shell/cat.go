package shell

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"rtshell/internal/domain"
	"rtshell/internal/resolver"
	"rtshell/internal/rterror"
	"rtshell/internal/tree"
)

// CatOptions control how much detail Cat prints
type CatOptions struct {
	// Long is the detail level: 0 is a summary, 1 expands execution
	// contexts and ports, 2 and above also expand connectors
	Long int
}

// Cat prints the profile of each component, manager or port
func (s *Shell) Cat(ctx context.Context, paths []string, opts CatOptions) error {
	if len(paths) == 0 {
		return rterror.New(rterror.CannotCatDirectory)
	}
	for _, p := range paths {
		if err := s.cat(ctx, p, opts); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shell) cat(ctx context.Context, raw string, opts CatOptions) error {
	addr, res, err := s.resolve(ctx, raw, resolver.Options{})
	if err != nil {
		return remap(err, addr, rterror.NotADirectory, rterror.NoSuchObject)
	}
	switch res.Kind {
	case tree.KindComponent:
		comp, err := s.tree.Component(ctx, res.Node)
		if err != nil {
			return err
		}
		return writeComponent(s.out, res.Node, comp, opts.Long)
	case tree.KindManager:
		mgr, err := s.tree.Manager(ctx, res.Node)
		if err != nil {
			return err
		}
		return writeManager(s.out, mgr)
	case tree.KindPort:
		return writePort(s.out, "", res.Node.Server, res.PortRef(), res.Port, opts.Long)
	}
	return rterror.New(rterror.NoSuchObject, addr.Raw)
}

func writeComponent(w io.Writer, n *tree.Node, c *domain.Component, level int) error {
	fmt.Fprintf(w, "%s  %s\n", n.Name, c.State(0))
	err := table(w, "  ", [][]string{
		{"Category", c.Category},
		{"Description", c.Description},
		{"Instance name", c.InstanceName},
		{"Type name", c.TypeName},
		{"Vendor", c.Vendor},
		{"Version", c.Version},
	})
	if err != nil {
		return err
	}

	for _, ec := range c.ExecutionContexts {
		if level == 0 {
			fmt.Fprintf(w, "  +Execution Context %d\n", ec.Index)
			continue
		}
		fmt.Fprintf(w, "  -Execution Context %d\n", ec.Index)
		owned := "No"
		if ec.Owned {
			owned = "Yes"
		}
		rows := [][]string{{"State", string(ec.State)}}
		if ec.Kind != "" {
			rows = append(rows, []string{"Kind", ec.Kind})
		}
		rows = append(rows,
			[]string{"Rate", strconv.FormatFloat(ec.Rate, 'f', 1, 64)},
			[]string{"Owned", owned})
		if err := table(w, "    ", rows); err != nil {
			return err
		}
	}

	for i := range c.Ports {
		p := &c.Ports[i]
		ref := domain.PortRef{Ref: n.Ref, Port: p.Name}
		if err := writePort(w, "  ", n.Server, ref, p, level); err != nil {
			return err
		}
	}
	return nil
}

func writeManager(w io.Writer, m *domain.Manager) error {
	fmt.Fprintf(w, "Name: %s\n", m.Name)
	if len(m.Components) > 0 {
		fmt.Fprintln(w, "Components:")
		for _, b := range m.Components {
			fmt.Fprintf(w, "  %s\n", b.Name)
		}
	}
	fmt.Fprintln(w, "Modules:")
	for _, mod := range m.Modules {
		fmt.Fprintf(w, "  %s\n", mod.Path)
		for _, t := range mod.Provides() {
			fmt.Fprintf(w, "    Provides %s\n", t)
		}
	}
	fmt.Fprintln(w, "Loaded modules:")
	for _, mod := range m.Loaded {
		fmt.Fprintf(w, "  %s\n", mod.Path)
	}
	return nil
}

// writePort prints one port. Level 1 adds its properties and the ports it
// is connected to; level 2 expands every connector.
func writePort(w io.Writer, indent, server string, ref domain.PortRef, p *domain.Port, level int) error {
	label := p.Polarity.Label()
	if level == 0 {
		fmt.Fprintf(w, "%s+%s: %s\n", indent, label, p.Name)
		return nil
	}
	fmt.Fprintf(w, "%s-%s: %s\n", indent, label, p.Name)
	if err := table(w, indent+"  ", propertyRows(p.Properties)); err != nil {
		return err
	}

	for _, c := range p.Connectors {
		for _, other := range c.OtherEnds(ref) {
			target := tree.PortPath(server, other)
			if level < 2 {
				fmt.Fprintf(w, "%s  +Connected to  %s\n", indent, target)
				continue
			}
			fmt.Fprintf(w, "%s  -Connected to  %s\n", indent, target)
			rows := append([][]string{{"Name", c.Name}, {"ID", c.ID}}, propertyRows(c.Properties)...)
			if err := table(w, indent+"    ", rows); err != nil {
				return err
			}
		}
	}
	return nil
}

func propertyRows(props map[string]string) [][]string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, props[k]})
	}
	return rows
}

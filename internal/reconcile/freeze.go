package reconcile

import (
	"context"
	"path"
	"strings"

	"go.uber.org/zap"

	"rtshell/internal/domain"
	"rtshell/internal/profile"
	"rtshell/internal/tree"
)

// FreezeOptions name the profile produced by Freeze
type FreezeOptions struct {
	Abstract string
	Name     string
	Version  string
	Vendor   string
}

type frozen struct {
	server string
	ref    string
	path   string
	comp   *domain.Component
}

// Freeze captures the live system under the tree's name servers as a
// profile: every live component with its ports and configuration, and every
// connector between them. Zombies are skipped, as are components seen a
// second time through their manager.
func (e *Engine) Freeze(ctx context.Context, opts FreezeOptions) (*profile.Profile, error) {
	var comps []frozen
	seen := make(map[string]bool)
	err := e.tree.Walk(ctx, e.tree.Root(), -1, func(n *tree.Node, depth int) error {
		if n.Kind != tree.KindComponent {
			return nil
		}
		key := n.Server + n.Ref
		if seen[key] {
			return nil
		}
		seen[key] = true
		c, err := e.tree.Component(ctx, n)
		if err != nil {
			e.logger.Warn("skipping component", zap.String("path", n.Path), zap.Error(err))
			return nil
		}
		comps = append(comps, frozen{server: n.Server, ref: n.Ref, path: strings.TrimPrefix(n.Path, "/"), comp: c})
		return nil
	})
	if err != nil {
		return nil, err
	}

	version := opts.Version
	if version == "" {
		version = profile.DefaultVersion
	}
	p := &profile.Profile{
		ID:       profile.SystemID(opts.Vendor, opts.Name, opts.Version),
		Abstract: opts.Abstract,
		Version:  version,
	}

	instances := make(map[string]string, len(comps))
	for _, f := range comps {
		instances[f.server+f.ref] = f.comp.InstanceName
	}

	connectors := make(map[string]bool)
	for _, f := range comps {
		p.Components = append(p.Components, freezeComponent(f))
		for _, port := range f.comp.Ports {
			self := domain.PortRef{Ref: f.ref, Port: port.Name}
			for _, c := range port.Connectors {
				if connectors[c.ID] {
					continue
				}
				others := c.OtherEnds(self)
				if len(others) == 0 {
					continue
				}
				connectors[c.ID] = true
				p.Connectors = append(p.Connectors, freezeConnector(f.server, self, others[0], port.Polarity, c, instances))
			}
		}
	}
	return p, nil
}

func freezeComponent(f frozen) profile.Component {
	c := profile.Component{
		TypeID:          f.comp.TypeID(),
		InstanceName:    f.comp.InstanceName,
		PathURI:         f.path,
		Required:        true,
		ActiveConfigSet: f.comp.ActiveConfigSet,
	}
	for _, port := range f.comp.Ports {
		c.Ports = append(c.Ports, profile.Port{
			Name:     port.Name,
			Service:  port.Polarity == domain.PolarityService,
			Required: true,
		})
	}
	for _, s := range f.comp.ConfigSets {
		c.ConfigSets = append(c.ConfigSets, profile.ConfigSet{
			ID:         s.ID,
			Parameters: append([]domain.Parameter(nil), s.Parameters...),
		})
	}
	return c
}

// freezeConnector orients a connector so that data flows from source to
// target. Service connectors keep the order they were found in.
func freezeConnector(server string, self, other domain.PortRef, polarity domain.Polarity, c domain.Connector, instances map[string]string) profile.Connector {
	endpoint := func(p domain.PortRef) profile.Endpoint {
		inst, ok := instances[server+p.Ref]
		if !ok {
			inst = strings.TrimSuffix(path.Base(p.Ref), ".rtc")
		}
		return profile.Endpoint{PathURI: server + p.Ref, PortName: inst + "." + p.Port}
	}
	src, dst := self, other
	if polarity == domain.PolarityDataIn {
		src, dst = other, self
	}
	props := make(map[string]string, len(c.Properties))
	for k, v := range c.Properties {
		props[k] = v
	}
	return profile.Connector{
		ID:         c.ID,
		Name:       c.Name,
		Service:    polarity == domain.PolarityService,
		Required:   true,
		Properties: props,
		Source:     endpoint(src),
		Target:     endpoint(dst),
	}
}

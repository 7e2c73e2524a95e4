package loader

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"rtshell/internal/domain"

	"gopkg.in/yaml.v3"
)

// SeedYAML represents the seed file structure
type SeedYAML struct {
	Version     string           `yaml:"version"`
	Description string           `yaml:"description,omitempty"`
	Contexts    []string         `yaml:"contexts,omitempty"`
	Components  []ComponentYAML  `yaml:"components,omitempty"`
	Managers    []ManagerYAML    `yaml:"managers,omitempty"`
	Connections []ConnectionYAML `yaml:"connections,omitempty"`
}

// ComponentYAML represents a bound component, or a module template when Path is empty
type ComponentYAML struct {
	Path              string            `yaml:"path,omitempty"`
	Instance          string            `yaml:"instance,omitempty"`
	Type              string            `yaml:"type"`
	Category          string            `yaml:"category,omitempty"`
	Vendor            string            `yaml:"vendor,omitempty"`
	Version           string            `yaml:"version,omitempty"`
	Description       string            `yaml:"description,omitempty"`
	Endpoint          string            `yaml:"endpoint,omitempty"`
	Zombie            bool              `yaml:"zombie,omitempty"`
	FailOnActivate    bool              `yaml:"fail_on_activate,omitempty"`
	State             string            `yaml:"state,omitempty"`
	ExecutionContexts int               `yaml:"execution_contexts,omitempty"`
	Rate              float64           `yaml:"rate,omitempty"`
	Ports             []PortYAML        `yaml:"ports,omitempty"`
	ConfigSets        []ConfigSetYAML   `yaml:"config_sets,omitempty"`
	ActiveSet         string            `yaml:"active_set,omitempty"`
	Properties        map[string]string `yaml:"properties,omitempty"`
}

// PortYAML represents a component port
type PortYAML struct {
	Name       string            `yaml:"name"`
	Polarity   string            `yaml:"polarity"`
	DataType   string            `yaml:"data_type,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// ConfigSetYAML represents a configuration set
type ConfigSetYAML struct {
	ID     string            `yaml:"id"`
	Params map[string]string `yaml:"params"`
}

// ManagerYAML represents a component manager
type ManagerYAML struct {
	Path       string       `yaml:"path"`
	Name       string       `yaml:"name,omitempty"`
	Zombie     bool         `yaml:"zombie,omitempty"`
	Modules    []ModuleYAML `yaml:"modules,omitempty"`
	Loaded     []string     `yaml:"loaded,omitempty"`
	Components []string     `yaml:"components,omitempty"`
}

// ModuleYAML represents a loadable module and the component types it provides
type ModuleYAML struct {
	Path     string          `yaml:"path"`
	Init     string          `yaml:"init,omitempty"`
	Provides []ComponentYAML `yaml:"provides,omitempty"`
}

// ConnectionYAML represents a connector present when the seed is loaded
type ConnectionYAML struct {
	ID         string            `yaml:"id,omitempty"`
	Name       string            `yaml:"name,omitempty"`
	From       string            `yaml:"from"`
	To         string            `yaml:"to"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// LoadYAML loads a registry snapshot from a seed file
func LoadYAML(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML parses a registry snapshot from seed YAML bytes
func ParseYAML(data []byte) (*domain.Snapshot, error) {
	var seed SeedYAML
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return convertSeed(&seed)
}

func normaliseRef(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

func convertSeed(y *SeedYAML) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{
		Contexts:   []string{},
		Components: []domain.ComponentRecord{},
		Managers:   []domain.ManagerRecord{},
	}
	seen := make(map[string]bool)

	for _, c := range y.Contexts {
		ref := normaliseRef(c)
		if ref == "/" || seen[ref] {
			continue
		}
		seen[ref] = true
		snap.Contexts = append(snap.Contexts, ref)
	}

	index := make(map[string]int)
	for _, c := range y.Components {
		if c.Path == "" {
			return nil, fmt.Errorf("component of type %q has no path", c.Type)
		}
		ref := normaliseRef(c.Path)
		if seen[ref] {
			return nil, fmt.Errorf("duplicate binding %s", ref)
		}
		seen[ref] = true

		comp, err := convertComponent(c, ref)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", ref, err)
		}
		index[ref] = len(snap.Components)
		snap.Components = append(snap.Components, domain.ComponentRecord{
			Ref:            ref,
			Alive:          !c.Zombie,
			Component:      comp,
			FailOnActivate: c.FailOnActivate,
		})
	}

	for _, m := range y.Managers {
		ref := normaliseRef(m.Path)
		if seen[ref] {
			return nil, fmt.Errorf("duplicate binding %s", ref)
		}
		seen[ref] = true

		mgr, err := convertManager(m, index)
		if err != nil {
			return nil, fmt.Errorf("manager %s: %w", ref, err)
		}
		snap.Managers = append(snap.Managers, domain.ManagerRecord{Ref: ref, Alive: !m.Zombie, Manager: mgr})
	}

	for i, c := range y.Connections {
		if err := applyConnection(snap, index, c, i); err != nil {
			return nil, fmt.Errorf("connection %d: %w", i, err)
		}
	}

	return snap, nil
}

func convertComponent(c ComponentYAML, ref string) (domain.Component, error) {
	instance := c.Instance
	if instance == "" && ref != "" {
		_, name := domain.SplitRef(ref)
		instance = strings.TrimSuffix(name, ".rtc")
	}

	state := domain.StateInactive
	if c.State != "" {
		st, ok := domain.ParseExecState(c.State)
		if !ok {
			return domain.Component{}, fmt.Errorf("unknown state %q", c.State)
		}
		state = st
	}

	comp := domain.Component{
		InstanceName:    instance,
		TypeName:        c.Type,
		Category:        c.Category,
		Vendor:          c.Vendor,
		Version:         c.Version,
		Description:     c.Description,
		Endpoint:        c.Endpoint,
		ActiveConfigSet: c.ActiveSet,
	}

	ecs := c.ExecutionContexts
	if ecs == 0 {
		ecs = 1
	}
	rate := c.Rate
	if rate == 0 {
		rate = 1000
	}
	for i := 0; i < ecs; i++ {
		comp.ExecutionContexts = append(comp.ExecutionContexts, domain.ExecutionContext{
			Index: i,
			Kind:  "PeriodicExecutionContext",
			Rate:  rate,
			Owned: true,
			State: state,
		})
	}

	for _, p := range c.Ports {
		port, err := convertPort(p)
		if err != nil {
			return domain.Component{}, err
		}
		if comp.Port(port.Name) != nil {
			return domain.Component{}, fmt.Errorf("duplicate port %q", port.Name)
		}
		comp.Ports = append(comp.Ports, port)
	}

	for _, s := range c.ConfigSets {
		set := domain.ConfigSet{ID: s.ID}
		names := make([]string, 0, len(s.Params))
		for name := range s.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			set.Parameters = append(set.Parameters, domain.Parameter{Name: name, Value: s.Params[name]})
		}
		comp.ConfigSets = append(comp.ConfigSets, set)
	}
	if comp.ActiveConfigSet == "" && len(comp.ConfigSets) > 0 {
		comp.ActiveConfigSet = "default"
		if comp.ConfigSet("default") == nil {
			comp.ActiveConfigSet = comp.ConfigSets[0].ID
		}
	}
	if comp.ActiveConfigSet != "" && comp.ConfigSet(comp.ActiveConfigSet) == nil {
		return domain.Component{}, fmt.Errorf("active set %q is not defined", comp.ActiveConfigSet)
	}

	return comp, nil
}

func convertPort(p PortYAML) (domain.Port, error) {
	var pol domain.Polarity
	switch strings.ToLower(p.Polarity) {
	case "datain", "in":
		pol = domain.PolarityDataIn
	case "dataout", "out":
		pol = domain.PolarityDataOut
	case "service", "svc", "corba":
		pol = domain.PolarityService
	default:
		return domain.Port{}, fmt.Errorf("port %q has unknown polarity %q", p.Name, p.Polarity)
	}

	props := make(map[string]string, len(p.Properties)+2)
	for k, v := range p.Properties {
		props[k] = v
	}
	switch pol {
	case domain.PolarityDataIn, domain.PolarityDataOut:
		props["port.port_type"] = pol.Label()
		if p.DataType != "" {
			props["dataport.data_type"] = p.DataType
		}
	case domain.PolarityService:
		props["port.port_type"] = pol.Label()
	}
	return domain.Port{Name: p.Name, Polarity: pol, Properties: props}, nil
}

func convertManager(m ManagerYAML, components map[string]int) (domain.Manager, error) {
	mgr := domain.Manager{Name: m.Name}
	if mgr.Name == "" {
		_, name := domain.SplitRef(normaliseRef(m.Path))
		mgr.Name = strings.TrimSuffix(name, ".mgr")
	}

	for _, mod := range m.Modules {
		dm := domain.Module{Path: mod.Path, InitFunc: mod.Init}
		for _, t := range mod.Provides {
			comp, err := convertComponent(t, "")
			if err != nil {
				return mgr, fmt.Errorf("module %s: %w", mod.Path, err)
			}
			comp.InstanceName = ""
			dm.Templates = append(dm.Templates, comp)
		}
		mgr.Modules = append(mgr.Modules, dm)
	}

	for _, p := range m.Loaded {
		mod := mgr.Module(p)
		if mod == nil {
			return mgr, fmt.Errorf("loaded module %s is not a known module", p)
		}
		mgr.Loaded = append(mgr.Loaded, domain.Manager{Modules: []domain.Module{*mod}}.Clone().Modules[0])
	}

	for _, c := range m.Components {
		ref := normaliseRef(c)
		if _, ok := components[ref]; !ok {
			return mgr, fmt.Errorf("owned component %s is not declared", ref)
		}
		_, name := domain.SplitRef(ref)
		mgr.Components = append(mgr.Components, domain.Binding{Name: name, Kind: domain.BindingObject, Ref: ref})
	}

	return mgr, nil
}

func applyConnection(snap *domain.Snapshot, index map[string]int, c ConnectionYAML, n int) error {
	from, ok := domain.ParsePortRef(c.From)
	if !ok {
		return fmt.Errorf("bad port reference %q", c.From)
	}
	to, ok := domain.ParsePortRef(c.To)
	if !ok {
		return fmt.Errorf("bad port reference %q", c.To)
	}
	from.Ref = normaliseRef(from.Ref)
	to.Ref = normaliseRef(to.Ref)

	var ports []*domain.Port
	for _, pr := range []domain.PortRef{from, to} {
		i, ok := index[pr.Ref]
		if !ok {
			return fmt.Errorf("component %s is not declared", pr.Ref)
		}
		p := snap.Components[i].Component.Port(pr.Port)
		if p == nil {
			return fmt.Errorf("component %s has no port %q", pr.Ref, pr.Port)
		}
		ports = append(ports, p)
	}
	if !ports[0].Polarity.Compatible(ports[1].Polarity) {
		return fmt.Errorf("%s and %s have incompatible polarities", from, to)
	}

	id := c.ID
	if id == "" {
		id = fmt.Sprintf("seed_connection%d", n)
	}
	name := c.Name
	if name == "" {
		name = id
	}
	conn := domain.Connector{
		ID:         id,
		Name:       name,
		Ports:      []domain.PortRef{from, to},
		Properties: c.Properties,
	}
	for _, p := range ports {
		p.Connectors = append(p.Connectors, conn.Clone())
	}
	return nil
}

// ExportYAML exports a registry snapshot in seed format
func ExportYAML(snap *domain.Snapshot) ([]byte, error) {
	seed := &SeedYAML{Version: "1", Contexts: append([]string(nil), snap.Contexts...)}

	seen := make(map[string]bool)
	for _, rec := range snap.Components {
		c := exportComponent(rec.Component)
		c.Path = rec.Ref
		c.Zombie = !rec.Alive
		c.FailOnActivate = rec.FailOnActivate
		seed.Components = append(seed.Components, c)

		for _, p := range rec.Component.Ports {
			for _, conn := range p.Connectors {
				if seen[conn.ID] || len(conn.Ports) != 2 {
					continue
				}
				seen[conn.ID] = true
				seed.Connections = append(seed.Connections, ConnectionYAML{
					ID:         conn.ID,
					Name:       conn.Name,
					From:       conn.Ports[0].String(),
					To:         conn.Ports[1].String(),
					Properties: conn.Properties,
				})
			}
		}
	}

	for _, rec := range snap.Managers {
		m := ManagerYAML{Path: rec.Ref, Name: rec.Manager.Name, Zombie: !rec.Alive}
		for _, mod := range rec.Manager.Modules {
			my := ModuleYAML{Path: mod.Path, Init: mod.InitFunc}
			for _, t := range mod.Templates {
				my.Provides = append(my.Provides, exportComponent(t))
			}
			m.Modules = append(m.Modules, my)
		}
		for _, mod := range rec.Manager.Loaded {
			m.Loaded = append(m.Loaded, mod.Path)
		}
		for _, b := range rec.Manager.Components {
			m.Components = append(m.Components, b.Ref)
		}
		seed.Managers = append(seed.Managers, m)
	}

	return yaml.Marshal(seed)
}

func exportComponent(comp domain.Component) ComponentYAML {
	c := ComponentYAML{
		Instance:    comp.InstanceName,
		Type:        comp.TypeName,
		Category:    comp.Category,
		Vendor:      comp.Vendor,
		Version:     comp.Version,
		Description: comp.Description,
		Endpoint:    comp.Endpoint,
		ActiveSet:   comp.ActiveConfigSet,
	}
	if len(comp.ExecutionContexts) > 0 {
		c.State = string(comp.ExecutionContexts[0].State)
		c.Rate = comp.ExecutionContexts[0].Rate
		if len(comp.ExecutionContexts) > 1 {
			c.ExecutionContexts = len(comp.ExecutionContexts)
		}
	}
	for _, p := range comp.Ports {
		py := PortYAML{Name: p.Name, Polarity: string(p.Polarity), DataType: p.Properties["dataport.data_type"]}
		for k, v := range p.Properties {
			if k == "port.port_type" || k == "dataport.data_type" {
				continue
			}
			if py.Properties == nil {
				py.Properties = make(map[string]string)
			}
			py.Properties[k] = v
		}
		c.Ports = append(c.Ports, py)
	}
	for _, s := range comp.ConfigSets {
		sy := ConfigSetYAML{ID: s.ID, Params: make(map[string]string, len(s.Parameters))}
		for _, p := range s.Parameters {
			sy.Params[p.Name] = p.Value
		}
		c.ConfigSets = append(c.ConfigSets, sy)
	}
	return c
}

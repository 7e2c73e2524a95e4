// Package profile holds the typed model of a system profile: the components,
// ports, connectors, configuration and target states a running system is
// expected to have.
//
// Paths in a profile are stored as in the documents they come from, without
// a leading slash. The Path helpers return absolute tree paths.
package profile

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"rtshell/internal/domain"
)

// Default values used when a system profile id is built from its parts
const (
	DefaultVendor  = "Me"
	DefaultName    = "RTSystem"
	DefaultVersion = "0"
)

// Profile is a parsed system profile
type Profile struct {
	ID         string
	Abstract   string
	Version    string
	Components []Component
	Connectors []Connector
}

// Component is a component the system expects to find
type Component struct {
	// TypeID is the RTC:vendor:category:type:version identifier
	TypeID          string
	InstanceName    string
	PathURI         string
	Required        bool
	ActiveConfigSet string
	ConfigSets      []ConfigSet
	Ports           []Port
	TargetState     *TargetState
}

// Port is a port a component is expected to expose
type Port struct {
	Name     string
	Service  bool
	Required bool
}

// ConfigSet is a configuration set with the values it should hold
type ConfigSet struct {
	ID         string
	Parameters []domain.Parameter
}

// TargetState is the state a component should reach in one execution context
type TargetState struct {
	ExecutionContext int
	State            domain.ExecState
	Required         bool
}

// Endpoint is one end of a connector
type Endpoint struct {
	PathURI string
	// PortName is <instance>.<port>
	PortName string
}

// Connector is a connection the system expects between two ports
type Connector struct {
	ID         string
	Name       string
	Service    bool
	Required   bool
	Properties map[string]string
	Source     Endpoint
	Target     Endpoint
}

// SystemID builds a system profile id from vendor, name and version,
// substituting defaults for empty parts
func SystemID(vendor, name, version string) string {
	if vendor == "" {
		vendor = DefaultVendor
	}
	if name == "" {
		name = DefaultName
	}
	if version == "" {
		version = DefaultVersion
	}
	return "RTSystem :" + vendor + "." + name + "." + version
}

// Path returns the component's absolute tree path
func (c *Component) Path() string {
	return absolute(c.PathURI)
}

// Target returns the component's target state. Components without one are
// expected to be Active in execution context 0, required as the component is.
func (c *Component) Target() TargetState {
	if c.TargetState != nil {
		return *c.TargetState
	}
	return TargetState{State: domain.StateActive, Required: c.Required}
}

// Path returns the absolute path of the endpoint's component
func (e Endpoint) Path() string {
	return absolute(e.PathURI)
}

// Port returns the port name without its instance prefix
func (e Endpoint) Port() string {
	if _, port, ok := strings.Cut(e.PortName, "."); ok {
		return port
	}
	return e.PortName
}

// PortPath returns the absolute path of the endpoint's port
func (e Endpoint) PortPath() string {
	return e.Path() + ":" + e.Port()
}

// Component returns the component declared at pathURI, or nil
func (p *Profile) Component(pathURI string) *Component {
	pathURI = strings.TrimPrefix(pathURI, "/")
	for i := range p.Components {
		if p.Components[i].PathURI == pathURI {
			return &p.Components[i]
		}
	}
	return nil
}

// Validate checks the profile for missing identities and inconsistent
// declarations, reporting every problem found
func (p *Profile) Validate() error {
	var err error
	seen := make(map[string]bool)
	for i, c := range p.Components {
		if c.InstanceName == "" {
			err = multierr.Append(err, fmt.Errorf("component %d: missing instance name", i))
		}
		if c.PathURI == "" {
			err = multierr.Append(err, fmt.Errorf("component %q: missing path", c.InstanceName))
			continue
		}
		if seen[c.PathURI] {
			err = multierr.Append(err, fmt.Errorf("component %q: duplicate path %s", c.InstanceName, c.PathURI))
		}
		seen[c.PathURI] = true
		if ts := c.TargetState; ts != nil {
			if ts.State != domain.StateActive && ts.State != domain.StateInactive {
				err = multierr.Append(err, fmt.Errorf("component %q: unsupported target state %q", c.InstanceName, ts.State))
			}
			if ts.ExecutionContext < 0 {
				err = multierr.Append(err, fmt.Errorf("component %q: negative execution context", c.InstanceName))
			}
		}
		for _, s := range c.ConfigSets {
			if s.ID == "" {
				err = multierr.Append(err, fmt.Errorf("component %q: configuration set without id", c.InstanceName))
			}
		}
	}

	ids := make(map[string]bool)
	for i, conn := range p.Connectors {
		if conn.ID == "" {
			err = multierr.Append(err, fmt.Errorf("connector %d: missing id", i))
		} else if ids[conn.ID] {
			err = multierr.Append(err, fmt.Errorf("connector %s: duplicate id", conn.ID))
		}
		ids[conn.ID] = true
		for _, end := range []Endpoint{conn.Source, conn.Target} {
			if end.PathURI == "" || end.PortName == "" {
				err = multierr.Append(err, fmt.Errorf("connector %s: incomplete endpoint %q", conn.ID, end.PathURI+":"+end.PortName))
			}
		}
	}
	return err
}

func absolute(pathURI string) string {
	if strings.HasPrefix(pathURI, "/") {
		return pathURI
	}
	return "/" + pathURI
}

package domain

import (
	"sort"
	"strings"
)

// ExecState is the state of a component in one execution context
type ExecState string

const (
	StateCreated  ExecState = "Created"
	StateInactive ExecState = "Inactive"
	StateActive   ExecState = "Active"
	StateError    ExecState = "Error"
	StateUnknown  ExecState = "Unknown"
)

// ParseExecState converts a state name, case-insensitively, to an ExecState
func ParseExecState(s string) (ExecState, bool) {
	for _, st := range []ExecState{StateCreated, StateInactive, StateActive, StateError, StateUnknown} {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return StateUnknown, false
}

// Transition is a lifecycle request sent to an execution context
type Transition string

const (
	TransitionActivate   Transition = "activate"
	TransitionDeactivate Transition = "deactivate"
	TransitionReset      Transition = "reset"
)

// HiddenSetPrefix marks configuration sets that are excluded from listings
const HiddenSetPrefix = "__"

// ExecutionContext describes one execution context a component participates in
type ExecutionContext struct {
	Index int       `json:"index"`
	Kind  string    `json:"kind,omitempty"`
	Rate  float64   `json:"rate,omitempty"`
	Owned bool      `json:"owned"`
	State ExecState `json:"state"`
}

// Parameter is one name/value pair of a configuration set
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ConfigSet is a named group of configuration parameters
type ConfigSet struct {
	ID         string      `json:"id"`
	Parameters []Parameter `json:"parameters"`
}

// Hidden reports whether the set is hidden from ordinary access
func (s *ConfigSet) Hidden() bool {
	return IsHiddenSet(s.ID)
}

// Get returns the value of a parameter in the set
func (s *ConfigSet) Get(name string) (string, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Set stores a parameter value, returning false if the parameter does not exist
func (s *ConfigSet) Set(name, value string) bool {
	for i := range s.Parameters {
		if s.Parameters[i].Name == name {
			s.Parameters[i].Value = value
			return true
		}
	}
	return false
}

// IsHiddenSet reports whether a configuration set id denotes a hidden set
func IsHiddenSet(id string) bool {
	return strings.HasPrefix(id, HiddenSetPrefix)
}

// Component is the live profile of a component
type Component struct {
	InstanceName      string             `json:"instance_name"`
	TypeName          string             `json:"type_name"`
	Category          string             `json:"category,omitempty"`
	Vendor            string             `json:"vendor,omitempty"`
	Version           string             `json:"version,omitempty"`
	Description       string             `json:"description,omitempty"`
	Endpoint          string             `json:"endpoint,omitempty"`
	ExecutionContexts []ExecutionContext `json:"execution_contexts"`
	Ports             []Port             `json:"ports"`
	ConfigSets        []ConfigSet        `json:"config_sets"`
	ActiveConfigSet   string             `json:"active_config_set,omitempty"`
}

// TypeID returns the component's type identifier in RTC:vendor:category:type:version form
func (c *Component) TypeID() string {
	return "RTC:" + c.Vendor + ":" + c.Category + ":" + c.TypeName + ":" + c.Version
}

// State returns the component state in the given execution context
func (c *Component) State(ec int) ExecState {
	for _, e := range c.ExecutionContexts {
		if e.Index == ec {
			return e.State
		}
	}
	return StateUnknown
}

// Port returns the named port, or nil
func (c *Component) Port(name string) *Port {
	for i := range c.Ports {
		if c.Ports[i].Name == name {
			return &c.Ports[i]
		}
	}
	return nil
}

// ConfigSet returns the named configuration set, or nil
func (c *Component) ConfigSet(id string) *ConfigSet {
	for i := range c.ConfigSets {
		if c.ConfigSets[i].ID == id {
			return &c.ConfigSets[i]
		}
	}
	return nil
}

// VisibleConfigSets returns configuration sets sorted by id, hidden sets
// included only when allowHidden is set
func (c *Component) VisibleConfigSets(allowHidden bool) []ConfigSet {
	sets := make([]ConfigSet, 0, len(c.ConfigSets))
	for _, s := range c.ConfigSets {
		if s.Hidden() && !allowHidden {
			continue
		}
		sets = append(sets, s)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].ID < sets[j].ID })
	return sets
}

// PortCounts returns per-polarity port and connected-port counts, in
// DataIn, DataOut, Service order
func (c *Component) PortCounts() (total [3]int, connected [3]int) {
	for _, p := range c.Ports {
		i := p.Polarity.index()
		if i < 0 {
			continue
		}
		total[i]++
		if len(p.Connectors) > 0 {
			connected[i]++
		}
	}
	return total, connected
}

// Clone returns a deep copy of the component
func (c Component) Clone() Component {
	out := c
	out.ExecutionContexts = append([]ExecutionContext(nil), c.ExecutionContexts...)
	out.Ports = make([]Port, len(c.Ports))
	for i, p := range c.Ports {
		out.Ports[i] = p.Clone()
	}
	out.ConfigSets = make([]ConfigSet, len(c.ConfigSets))
	for i, s := range c.ConfigSets {
		out.ConfigSets[i] = ConfigSet{ID: s.ID, Parameters: append([]Parameter(nil), s.Parameters...)}
	}
	return out
}

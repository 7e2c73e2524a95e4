package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"rtshell/internal/domain"
	"rtshell/internal/profile"
)

// Kind is the closed set of steps a plan can contain
type Kind int

const (
	CheckComponent Kind = iota + 1
	CheckPort
	CheckConnection
	CheckState
	Connect
	Disconnect
	SetParameter
	ActivateConfigSet
	Activate
	Deactivate
)

var kindNames = map[Kind]string{
	CheckComponent:    "check-component",
	CheckPort:         "check-port",
	CheckConnection:   "check-connection",
	CheckState:        "check-state",
	Connect:           "connect",
	Disconnect:        "disconnect",
	SetParameter:      "set-parameter",
	ActivateConfigSet: "activate-config-set",
	Activate:          "activate",
	Deactivate:        "deactivate",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// phase orders kinds within a plan. Disconnects come before everything,
// wiring before configuration, and lifecycle changes last.
var phase = map[Kind]int{
	Disconnect:        0,
	CheckComponent:    1,
	CheckPort:         2,
	CheckConnection:   3,
	Connect:           4,
	SetParameter:      5,
	ActivateConfigSet: 6,
	CheckState:        7,
	Activate:          8,
	Deactivate:        8,
}

// Action is one planned step. Which fields are meaningful depends on Kind.
type Action struct {
	Kind     Kind
	Required bool

	// Path is the absolute path of the component acted on
	Path     string
	TypeID   string
	Instance string
	Port     string

	Connector *profile.Connector

	Set   string
	Param string
	Value string

	EC    int
	State domain.ExecState
}

// Description renders the action as one line of a dry run
func (a *Action) Description() string {
	var s string
	switch a.Kind {
	case CheckComponent:
		s = fmt.Sprintf("Check for required component %q, %q at path %s", a.TypeID, a.Instance, a.Path)
	case CheckPort:
		s = fmt.Sprintf("Check for required port %q on component at path %s", a.Port, a.Path)
	case CheckConnection:
		s = fmt.Sprintf("Check for connection from %s to %s with ID %s",
			a.Connector.Source.PortPath(), a.Connector.Target.PortPath(), a.Connector.ID)
	case CheckState:
		s = fmt.Sprintf("Check component at path %s is %s in execution context %d", a.Path, a.State, a.EC)
	case Connect:
		s = fmt.Sprintf("Connect %s to %s with ID %s and properties %s",
			a.Connector.Source.PortPath(), a.Connector.Target.PortPath(), a.Connector.ID, formatProperties(a.Connector.Properties))
	case Disconnect:
		s = fmt.Sprintf("Disconnect %s from %s with ID %s",
			a.Connector.Source.PortPath(), a.Connector.Target.PortPath(), a.Connector.ID)
	case SetParameter:
		s = fmt.Sprintf("Set parameter %q in set %q on component at path %s to %q", a.Param, a.Set, a.Path, a.Value)
	case ActivateConfigSet:
		s = fmt.Sprintf("Set configuration set %q active on component at path %s", a.Set, a.Path)
	case Activate:
		s = fmt.Sprintf("Activate %s in execution context %d", a.Path, a.EC)
	case Deactivate:
		s = fmt.Sprintf("Deactivate %s in execution context %d", a.Path, a.EC)
	default:
		s = a.Kind.String()
	}
	if a.Required {
		s += " (Required)"
	}
	return s
}

// Render returns the description of every action, in order
func Render(actions []Action) []string {
	lines := make([]string, len(actions))
	for i := range actions {
		lines[i] = actions[i].Description()
	}
	return lines
}

// Order sorts actions by phase, keeping profile order within a phase
func Order(actions []Action) {
	sort.SliceStable(actions, func(i, j int) bool {
		return phase[actions[i].Kind] < phase[actions[j].Kind]
	})
}

func formatProperties(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + ": " + props[k]
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

package reconcile

import (
	"fmt"

	"rtshell/internal/domain"
	"rtshell/internal/profile"
)

// Command names a profile-driven command
type Command string

const (
	Resurrect Command = "resurrect"
	Start     Command = "start"
	Stop      Command = "stop"
	Teardown  Command = "teardown"
	Check     Command = "check"
)

// Policy controls how a command plans and reacts to failures
type Policy struct {
	// Kinds are the action kinds the command plans
	Kinds map[Kind]bool
	// AbortOnRequired stops the run at the first failing required action
	AbortOnRequired bool
	// AllOptional demotes every planned action to optional
	AllOptional bool
	// Announce writes lifecycle actions to the error stream as they run
	Announce bool
	// Verify reports every failure as a bare message and fails the
	// command if any action failed
	Verify bool
}

func kinds(ks ...Kind) map[Kind]bool {
	m := make(map[Kind]bool, len(ks))
	for _, k := range ks {
		m[k] = true
	}
	return m
}

// Policies holds the behaviour of each command
var Policies = map[Command]Policy{
	Resurrect: {
		Kinds:           kinds(CheckComponent, CheckPort, Connect, SetParameter, ActivateConfigSet),
		AbortOnRequired: true,
	},
	Start: {
		Kinds:           kinds(CheckComponent, Activate),
		AbortOnRequired: true,
		Announce:        true,
	},
	Check: {
		Kinds:  kinds(CheckComponent, CheckPort, CheckConnection, CheckState),
		Verify: true,
	},
	Stop: {
		Kinds:       kinds(Deactivate),
		AllOptional: true,
		Announce:    true,
	},
	Teardown: {
		Kinds:       kinds(Disconnect),
		AllOptional: true,
	},
}

// PolicyFor returns the policy of a command
func PolicyFor(cmd Command) (Policy, error) {
	pol, ok := Policies[cmd]
	if !ok {
		return Policy{}, fmt.Errorf("unknown reconciliation command %q", cmd)
	}
	return pol, nil
}

// Plan builds the ordered action list for cmd from a profile. It does not
// consult the live system.
func Plan(p *profile.Profile, cmd Command) ([]Action, error) {
	pol, err := PolicyFor(cmd)
	if err != nil {
		return nil, err
	}

	var all []Action
	for i := range p.Components {
		all = append(all, componentActions(&p.Components[i], cmd)...)
	}
	for i := range p.Connectors {
		conn := &p.Connectors[i]
		for _, k := range []Kind{CheckConnection, Connect, Disconnect} {
			all = append(all, Action{Kind: k, Required: conn.Required, Path: conn.Source.Path(), Connector: conn})
		}
	}

	actions := all[:0]
	for _, a := range all {
		if !pol.Kinds[a.Kind] {
			continue
		}
		if pol.AllOptional {
			a.Required = false
		}
		actions = append(actions, a)
	}
	Order(actions)
	return actions, nil
}

func componentActions(c *profile.Component, cmd Command) []Action {
	path := c.Path()
	out := []Action{{
		Kind:     CheckComponent,
		Required: c.Required,
		Path:     path,
		TypeID:   c.TypeID,
		Instance: c.InstanceName,
	}}
	for _, port := range c.Ports {
		out = append(out, Action{Kind: CheckPort, Required: port.Required, Path: path, Port: port.Name})
	}
	for _, set := range c.ConfigSets {
		for _, kv := range set.Parameters {
			out = append(out, Action{Kind: SetParameter, Path: path, Set: set.ID, Param: kv.Name, Value: kv.Value})
		}
	}
	if c.ActiveConfigSet != "" {
		out = append(out, Action{Kind: ActivateConfigSet, Path: path, Set: c.ActiveConfigSet})
	}

	target := c.Target()
	out = append(out, Action{
		Kind:     CheckState,
		Required: target.Required,
		Path:     path,
		EC:       target.ExecutionContext,
		State:    target.State,
	})
	switch {
	case cmd == Stop:
		out = append(out, Action{Kind: Deactivate, Path: path, EC: target.ExecutionContext})
	case target.State == domain.StateActive:
		out = append(out, Action{Kind: Activate, Required: target.Required, Path: path, EC: target.ExecutionContext})
	default:
		out = append(out, Action{Kind: Deactivate, Required: target.Required, Path: path, EC: target.ExecutionContext})
	}
	return out
}

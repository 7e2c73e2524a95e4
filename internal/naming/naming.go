// Package naming defines the contract rtshell uses to talk to a name server
// and the component framework behind it, plus an HTTP implementation of that
// contract.
//
// Object references are server-relative paths such as
// "/local.host_cxt/Std0.rtc". Every call is synchronous and may fail; nothing
// in this package retries.
package naming

import (
	"context"
	"errors"

	"rtshell/internal/domain"
)

// DefaultPort is the port a name server listens on when none is configured
const DefaultPort = 2809

// ErrUnreachable is returned when the name server could not be contacted at all
var ErrUnreachable = errors.New("name server unreachable")

// Service is a name server together with the component framework of the
// objects bound in it
type Service interface {
	// List returns the bindings directly under a naming context ("/" is the root)
	List(ctx context.Context, dir string) ([]domain.Binding, error)
	// Probe reports what a bound object is. A dead object yields
	// domain.ErrDefunct, an unbound one domain.ErrNotFound.
	Probe(ctx context.Context, ref string) (domain.ObjectKind, error)
	Component(ctx context.Context, ref string) (*domain.Component, error)
	Manager(ctx context.Context, ref string) (*domain.Manager, error)

	Connect(ctx context.Context, req ConnectRequest) (*domain.Connector, error)
	// Disconnect removes connector id from the port and from every other end
	Disconnect(ctx context.Context, port domain.PortRef, id string) error
	SetParameter(ctx context.Context, ref, set, param, value string) error
	ActivateConfigSet(ctx context.Context, ref, set string) error
	ChangeState(ctx context.Context, ref string, ec int, t domain.Transition) error
	// Exit terminates the object; its binding remains and becomes a zombie
	Exit(ctx context.Context, ref string) error
	// Unbind removes a binding, recursively for naming contexts
	Unbind(ctx context.Context, ref string) error

	LoadModule(ctx context.Context, manager, path, initFunc string) error
	UnloadModule(ctx context.Context, manager, path string) error
	// CreateComponent instantiates a type on a manager and returns the new reference
	CreateComponent(ctx context.Context, manager, typeName string) (string, error)
	DeleteComponent(ctx context.Context, manager, instanceName string) error
}

// Dialer returns the Service for a named server listed under the root
type Dialer func(ctx context.Context, server string) (Service, error)

// ConnectRequest asks for a connector between two or more ports
type ConnectRequest struct {
	ID         string            `json:"id,omitempty"`
	Name       string            `json:"name,omitempty"`
	Ports      []domain.PortRef  `json:"ports"`
	Properties map[string]string `json:"properties,omitempty"`
}

// DisconnectRequest removes one connector from a port
type DisconnectRequest struct {
	Port domain.PortRef `json:"port"`
	ID   string         `json:"id"`
}

// ParameterRequest sets one configuration parameter
type ParameterRequest struct {
	Ref   string `json:"ref"`
	Set   string `json:"set"`
	Param string `json:"param"`
	Value string `json:"value"`
}

// ConfigSetRequest activates a configuration set
type ConfigSetRequest struct {
	Ref string `json:"ref"`
	Set string `json:"set"`
}

// StateRequest asks for a lifecycle transition in one execution context
type StateRequest struct {
	Ref        string            `json:"ref"`
	EC         int               `json:"ec"`
	Transition domain.Transition `json:"transition"`
}

// RefRequest carries a single object reference
type RefRequest struct {
	Ref string `json:"ref"`
}

// ModuleRequest loads or unloads a module on a manager
type ModuleRequest struct {
	Manager  string `json:"manager"`
	Path     string `json:"path"`
	InitFunc string `json:"init_func,omitempty"`
}

// CreateRequest instantiates a component type on a manager
type CreateRequest struct {
	Manager string `json:"manager"`
	Type    string `json:"type"`
}

// DeleteRequest removes a manager-owned component by instance name
type DeleteRequest struct {
	Manager  string `json:"manager"`
	Instance string `json:"instance"`
}

// ProbeResponse is the result of a probe
type ProbeResponse struct {
	Kind domain.ObjectKind `json:"kind"`
}

// CreateResponse carries the reference of a newly created component
type CreateResponse struct {
	Ref string `json:"ref"`
}

// Package domain defines the wire types shared by the rtshell client and the
// registry daemon.
//
// These types describe what a naming service and a component framework expose
// about a running system: naming bindings, components with their ports,
// connectors, configuration sets and execution contexts, and managers with
// their loadable modules.
//
// # Bindings and References
//
// A Binding is one entry of a naming context. Context bindings can be listed
// further; object bindings point at a live object through Ref, a
// server-relative path such as "/local.host_cxt/Std0.rtc". References are
// opaque to clients: they are handed back to the service unchanged.
//
// # Components
//
// Component is the full profile of a component: its execution contexts and
// the state in each, its ports and the connectors attached to them, and its
// configuration sets. Sets whose id begins with HiddenSetPrefix are hidden
// from ordinary listings.
//
// # Remote Errors
//
// The sentinel errors in errors.go are the failure vocabulary of the remote
// side. They survive the HTTP round trip through their Code so that a client
// can match them with errors.Is regardless of transport.
//
// # Snapshots
//
// Snapshot is a complete, serialisable copy of a registry. It is what the
// registry persists and what seed documents are converted into.
package domain

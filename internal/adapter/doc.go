// Package adapter implements background adapters for the rtnamed registry.
//
// Adapters run on a schedule under the adapter Registry and hand their
// results to a ReconcileFunc.
//
// LivenessAdapter TCP-probes the endpoint of every component that registered
// one. The resulting observations are reconciled into the naming registry,
// so a component whose process went away shows up as a zombie.
//
// NameServerScanner runs nmap against configured targets and reports hosts
// with the naming port open. The same scanner backs the rtsh scan command.
package adapter

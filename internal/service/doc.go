// Package service implements the rtnamed naming registry.
//
// Registry keeps the naming tree in memory: contexts, components with their
// ports and configuration sets, managers and the connectors between ports.
// It implements naming.Service, so the same type backs both the HTTP daemon
// and the in-process tree used by tests.
//
// # Persistence
//
// Every successful mutation writes a full snapshot through the Store and
// publishes one Event on the EventBus. RunJournal copies those events into
// the repository journal.
//
// # Liveness
//
// ReconcileService applies liveness observations from the adapters. A
// component whose endpoint stops answering is marked defunct and shows up
// as a zombie until a heartbeat revives it.
package service

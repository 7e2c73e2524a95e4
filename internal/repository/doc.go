// Package repository defines the persistence interface for the rtnamed registry.
//
// The registry keeps its live naming tree in memory. After every mutation the
// complete tree is written out as a snapshot so a restarted daemon comes back
// with the same contexts, components, managers and zombies. Registry events
// are appended to a journal that can be read back over the HTTP API.
//
// # SQLite Implementation
//
// The sqlite subpackage stores snapshots and the journal in a single SQLite
// database using the pure Go modernc.org/sqlite driver. Component and manager
// profiles are kept as JSON documents next to a few indexed columns.
//
// # Testing
//
// The sqlite repository is tested against in-memory databases.
package repository

// Package handler implements the HTTP API of the rtnamed registry.
//
// RegistryHandler exposes every naming.Service operation as a JSON endpoint,
// so the rtsh client can drive a remote registry exactly as it drives an
// in-process one. Reads use GET with query parameters; mutations use POST
// with a JSON body.
//
// # Errors
//
// Failures are returned as {error, code}. The code is the wire code of the
// domain sentinel (not_found, defunct, wrong_polarity, internal, ...) and
// selects the HTTP status. Clients map the code back to the same sentinel.
//
// # Extras
//
// /api/heartbeat revives an object marked defunct, /api/snapshot dumps the
// registry (JSON, or a seed document with format=yaml), /api/journal lists
// recent events and /health reports registry size.
package handler

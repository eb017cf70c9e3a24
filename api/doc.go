// File: api/doc.go
// License: Apache-2.0

// Package api holds the types shared between the protocol codec and the
// server engine: connection lifecycle states and the error values the
// engine reports through its error event. Keeping them here lets host
// applications match on sentinels without importing the server package.
package api

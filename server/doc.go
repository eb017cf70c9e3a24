// File: server/doc.go
// License: Apache-2.0

// Package server hosts the live-ws engine: it intercepts HTTP upgrade
// requests, performs the opening handshake, tracks accepted connections in
// a registry, and re-exposes decoded frames and lifecycle transitions as
// events to the host application.
//
// The engine is an http.Handler. A host mounts it on the route it serves
// the dashboard socket from:
//
//	eng := server.New(nil, server.WithHandler(h))
//	mux.Handle("/ws", eng)
//
// Each accepted connection is driven by two goroutines: a read loop that
// feeds raw bytes through the protocol codec, and a write loop that drains
// a per-connection outbound queue. Decoding and event dispatch for one
// connection are synchronous with its read loop; nothing in the engine
// blocks on host callbacks from another connection.
package server

// File: server/registry.go
// Package server tracks the live connection set.
// License: Apache-2.0

package server

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// registry is the set of currently accepted connections for one engine.
// It owns no socket; it is only the source of truth for "who is connected".
// The underlying set is safe for concurrent use, which serializes the
// add/remove traffic from independent connection goroutines.
type registry struct {
	conns mapset.Set[*Conn]
}

func newRegistry() *registry {
	return &registry{conns: mapset.NewSet[*Conn]()}
}

func (r *registry) add(c *Conn) {
	r.conns.Add(c)
}

// remove is idempotent: removing an absent connection is a no-op. The
// exactly-once close accounting lives on the connection itself.
func (r *registry) remove(c *Conn) {
	r.conns.Remove(c)
}

func (r *registry) size() int {
	return r.conns.Cardinality()
}

// snapshot copies the current membership. Broadcast iterates over the copy
// so a send-triggered close of one peer cannot disturb the loop.
func (r *registry) snapshot() []*Conn {
	return r.conns.ToSlice()
}

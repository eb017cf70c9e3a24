// File: server/registry_test.go
// License: Apache-2.0

package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryAddRemoveSize(t *testing.T) {
	r := newRegistry()
	a := &Conn{id: "a"}
	b := &Conn{id: "b"}

	r.add(a)
	r.add(b)
	require.Equal(t, 2, r.size())

	r.remove(a)
	require.Equal(t, 1, r.size())

	// Removal is idempotent: an absent member is a no-op.
	r.remove(a)
	require.Equal(t, 1, r.size())

	r.remove(b)
	require.Zero(t, r.size())
}

func TestRegistrySnapshotIsDetached(t *testing.T) {
	r := newRegistry()
	a := &Conn{id: "a"}
	b := &Conn{id: "b"}
	r.add(a)
	r.add(b)

	snap := r.snapshot()
	require.Len(t, snap, 2)

	// Mutating the registry mid-iteration must not affect the snapshot.
	r.remove(a)
	r.remove(b)
	require.Len(t, snap, 2)
	require.Zero(t, r.size())
}

// File: internal/netutil/listen.go
// Package netutil builds the dashboard host's TCP listener.
// License: Apache-2.0

package netutil

import (
	"context"
	"net"
)

// Listen opens a TCP listener on addr with the platform socket options
// applied (see listen_linux.go).
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	lc := net.ListenConfig{Control: control}
	return lc.Listen(ctx, "tcp", addr)
}

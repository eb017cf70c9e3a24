//go:build !linux

// File: internal/netutil/listen_stub.go
// License: Apache-2.0

package netutil

import "syscall"

// control is nil off Linux; the platform defaults are left alone.
var control func(network, address string, c syscall.RawConn) error

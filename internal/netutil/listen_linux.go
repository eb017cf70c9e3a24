//go:build linux

// File: internal/netutil/listen_linux.go
// License: Apache-2.0

package netutil

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// control enables SO_REUSEADDR so restarts do not trip over TIME_WAIT
// sockets, and TCP_NODELAY so small event frames leave immediately.
func control(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			sockErr = err
			return
		}
		sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

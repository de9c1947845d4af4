//go:build unix

package pool

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// alive does a non-destructive MSG_PEEK read on the raw fd to tell
// whether the peer has closed the connection since it was idled. A
// zero-byte peek that returns EOF means the peer is gone; EAGAIN or
// EWOULDBLOCK means the socket is merely idle and healthy.
func alive(c net.Conn) bool {
	sc, ok := c.(syscall.Conn)
	if !ok {
		return true
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return true
	}

	var buf [1]byte
	var n int
	var peekErr error
	ctrlErr := raw.Read(func(fd uintptr) bool {
		n, _, peekErr = unix.Recvfrom(int(fd), buf[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
		return true
	})
	if ctrlErr != nil {
		return true
	}
	if peekErr == unix.EAGAIN || peekErr == unix.EWOULDBLOCK {
		return true
	}
	if peekErr != nil {
		return false
	}
	return n != 0
}

//go:build !unix

package pool

import (
	"net"
	"time"
)

// alive is the portable fallback where MSG_PEEK isn't available: a
// short-deadline one-byte read. Unlike the Unix probe it is destructive:
// a byte the peer has already sent is consumed.
func alive(c net.Conn) bool {
	if err := c.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return true
	}
	defer c.SetReadDeadline(time.Time{})

	var buf [1]byte
	_, err := c.Read(buf[:])
	if err == nil {
		return true
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return true
	}
	return false
}

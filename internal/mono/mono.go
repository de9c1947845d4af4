// Package mono provides a monotonic clock for measuring elapsed time,
// used by the pool for idle-connection age.
// It wraps time.Now(), which is already monotonic on every supported
// platform (see https://pkg.go.dev/time#hdr-Monotonic_Clocks); resolving
// runtime.nanotime directly via go:linkname would shave a small constant
// off the hot path at the cost of breaking across Go releases, a trade
// not worth making here.
package mono

import "time"

// epoch carries the monotonic reading that NanoTime measures from.
var epoch = time.Now()

// NanoTime returns monotonic nanoseconds since the package was loaded.
func NanoTime() int64 { return int64(time.Since(epoch)) }

// Since returns the elapsed duration from a NanoTime() reading to now.
func Since(t int64) time.Duration { return time.Duration(NanoTime() - t) }

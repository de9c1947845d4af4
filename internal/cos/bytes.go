package cos

import "unsafe"

// UnsafeS returns a string pointing at b's storage, with no copy. The
// underlying bytes must not be mutated afterwards.
func UnsafeS(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

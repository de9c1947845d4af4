package protocol

import "github.com/pkg/errors"

// Errors surfaced by ReadFrame: EmptyTag when the first read yields no tag
// byte, NoDataReceived when the stream ends before a complete frame
// arrives, ReadFailed for a socket error at any point, and OversizedFrame
// once a declared length over PacketByteLimit is in hand. DecodeFailed is
// not returned by ReadFrame; it wraps a structured-record decode failure.
var (
	ErrEmptyTag       = errors.New("protocol: empty tag, no bytes available")
	ErrNoDataReceived = errors.New("protocol: no data received before stream closed")
	ErrOversizedFrame = errors.New("protocol: declared frame length exceeds packet byte limit")
)

// ErrReadFailed wraps the underlying I/O error from a failed socket read.
func ErrReadFailed(cause error) error {
	return errors.Wrap(cause, "protocol: read failed")
}

// ErrDecodeFailed wraps a structured-record decode failure.
func ErrDecodeFailed(cause error) error {
	return errors.Wrap(cause, "protocol: decode failed")
}

package protocol

import (
	"encoding/binary"
	"io"
)

// EncodeFrame produces tag ‖ big-endian(len(payload)) ‖ payload. Tags with
// an empty payload still carry the 4-byte length 0 on the wire; WriteFrame
// always emits the full 5-byte header plus payload in a single Write so
// that conforming peers see it as one TCP segment whenever possible.
func EncodeFrame(tag Tag, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = byte(tag)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(payload)))
	copy(buf[5:], payload)
	return buf
}

// WriteFrame encodes and writes one frame in a single Write call.
func WriteFrame(w io.Writer, tag Tag, payload []byte) error {
	_, err := w.Write(EncodeFrame(tag, payload))
	return err
}

// ReadFrame reads one frame from r. It accumulates raw Read() calls into a
// growing buffer until it has the full 5-byte header plus declared-length
// payload, with one compatibility
// carve-out: if the very first Read() returns exactly the tag byte and
// nothing else for a tag whose payload is always empty, the frame is
// accepted as a bare legacy response instead of blocking for four more
// length bytes that a legacy peer will never send.
func ReadFrame(r io.Reader) (Tag, []byte, error) {
	chunk := make([]byte, chunkSize)
	buf := make([]byte, 0, chunkSize)

	n, err := r.Read(chunk)
	if n == 0 {
		if err == nil {
			// io.Reader permits a (0, nil) read meaning "nothing yet,
			// try again"; ReadFrame doesn't retry mid-header, so no tag
			// byte is available yet.
			return 0, nil, ErrEmptyTag
		}
		if err != io.EOF {
			return 0, nil, ErrReadFailed(err)
		}
		return 0, nil, ErrNoDataReceived
	}
	buf = append(buf, chunk[:n]...)
	tag := Tag(buf[0])

	if len(buf) == 1 && tag.HasEmptyPayload() {
		// Legacy peer: bare tag, no length field will follow.
		return tag, nil, nil
	}

	for len(buf) < HeaderSize {
		n, err = r.Read(chunk)
		if n == 0 {
			if tag.HasEmptyPayload() {
				return tag, nil, nil
			}
			if err != nil && err != io.EOF {
				return 0, nil, ErrReadFailed(err)
			}
			return 0, nil, ErrNoDataReceived
		}
		buf = append(buf, chunk[:n]...)
	}

	length := binary.BigEndian.Uint32(buf[1:5])
	if length > PacketByteLimit {
		return 0, nil, ErrOversizedFrame
	}

	want := HeaderSize + int(length)
	for len(buf) < want {
		n, err = r.Read(chunk)
		if n == 0 {
			if err != nil && err != io.EOF {
				return 0, nil, ErrReadFailed(err)
			}
			return 0, nil, ErrNoDataReceived
		}
		buf = append(buf, chunk[:n]...)
	}

	payload := make([]byte, length)
	copy(payload, buf[HeaderSize:want])
	return tag, payload, nil
}

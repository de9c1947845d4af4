// Package protocol implements the wire framing and structured payload
// encoding shared by the server session and the client: a one-byte tag,
// a big-endian uint32 length, and exactly that many payload bytes.
package protocol

// Tag identifies the kind of a frame. Request tags (client to server) use
// the 0x01-0x05 range; response tags (server to client) use 0xF1-0xFF so
// that a frame's direction is apparent from its tag alone.
type Tag byte

const (
	// Requests (C -> S)
	PING   Tag = 0x01
	SET    Tag = 0x02
	GET    Tag = 0x03
	DELETE Tag = 0x04
	CLEAR  Tag = 0x05

	// Responses (S -> C)
	PONG           Tag = 0xF1
	SET_OK         Tag = 0xF2
	GET_OK         Tag = 0xF3
	DELETE_OK      Tag = 0xF4
	CLEAR_OK       Tag = 0xF5
	PACKET_INVALID Tag = 0xFE
	ERROR          Tag = 0xFF
)

// noValuePayload is the set of tags whose payload is always empty.
var noValuePayload = map[Tag]bool{
	PING:           true,
	CLEAR:          true,
	PONG:           true,
	SET_OK:         true,
	DELETE_OK:      true,
	CLEAR_OK:       true,
	PACKET_INVALID: true,
	ERROR:          true,
}

func (t Tag) HasEmptyPayload() bool { return noValuePayload[t] }

func (t Tag) IsResponse() bool { return t >= 0xF0 }

func (t Tag) String() string {
	switch t {
	case PING:
		return "PING"
	case SET:
		return "SET"
	case GET:
		return "GET"
	case DELETE:
		return "DELETE"
	case CLEAR:
		return "CLEAR"
	case PONG:
		return "PONG"
	case SET_OK:
		return "SET_OK"
	case GET_OK:
		return "GET_OK"
	case DELETE_OK:
		return "DELETE_OK"
	case CLEAR_OK:
		return "CLEAR_OK"
	case PACKET_INVALID:
		return "PACKET_INVALID"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

const (
	// KeyByteLimit and ValueByteLimit are soft upper bounds; callers MAY
	// reject larger keys/values before even attempting to send them.
	KeyByteLimit    = 1 << 20  // 1 MiB
	ValueByteLimit  = 10 << 20 // 10 MiB
	PacketByteLimit = 20 << 20 // 20 MiB, hard cap: oversized frames are rejected

	// HeaderSize is the fixed tag+length prefix of every frame on the wire.
	HeaderSize = 1 + 4

	// chunkSize is the buffering granularity used by the streaming reader;
	// it has no bearing on protocol correctness, only on syscall count.
	chunkSize = 1024
)

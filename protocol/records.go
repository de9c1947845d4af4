package protocol

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/aistorehq/kvstore/internal/cos"
)

// Structured payloads. Each string field is encoded as a big-endian
// uint32 length followed by that many UTF-8 bytes; a record is the
// concatenation of its fields in declaration order.
type (
	SetRequest struct {
		Key   string
		Value string
	}
	GetRequest struct {
		Key string
	}
	DeleteRequest struct {
		Key string
	}
	GetResponse struct {
		Value string
	}
)

var errTruncatedRecord = errors.New("truncated record")

func putString(dst []byte, s string) []byte {
	var lenbuf [4]byte
	binary.BigEndian.PutUint32(lenbuf[:], uint32(len(s)))
	dst = append(dst, lenbuf[:]...)
	dst = append(dst, s...)
	return dst
}

// getString reads one length-prefixed field without copying the string
// bytes out of src: the returned string aliases src, which is safe here
// because the caller's payload buffer is never reused or mutated once
// decoding starts.
func getString(src []byte) (s string, rest []byte, err error) {
	if len(src) < 4 {
		return "", nil, errTruncatedRecord
	}
	n := binary.BigEndian.Uint32(src[:4])
	src = src[4:]
	if uint64(len(src)) < uint64(n) {
		return "", nil, errTruncatedRecord
	}
	return cos.UnsafeS(src[:n]), src[n:], nil
}

func EncodeSetRequest(r SetRequest) []byte {
	buf := make([]byte, 0, 8+len(r.Key)+len(r.Value))
	buf = putString(buf, r.Key)
	buf = putString(buf, r.Value)
	return buf
}

func DecodeSetRequest(b []byte) (SetRequest, error) {
	key, rest, err := getString(b)
	if err != nil {
		return SetRequest{}, err
	}
	value, rest, err := getString(rest)
	if err != nil {
		return SetRequest{}, err
	}
	if len(rest) != 0 {
		return SetRequest{}, errors.New("trailing bytes in SetRequest")
	}
	return SetRequest{Key: key, Value: value}, nil
}

func EncodeGetRequest(r GetRequest) []byte {
	return putString(make([]byte, 0, 4+len(r.Key)), r.Key)
}

func DecodeGetRequest(b []byte) (GetRequest, error) {
	key, rest, err := getString(b)
	if err != nil {
		return GetRequest{}, err
	}
	if len(rest) != 0 {
		return GetRequest{}, errors.New("trailing bytes in GetRequest")
	}
	return GetRequest{Key: key}, nil
}

func EncodeDeleteRequest(r DeleteRequest) []byte {
	return putString(make([]byte, 0, 4+len(r.Key)), r.Key)
}

func DecodeDeleteRequest(b []byte) (DeleteRequest, error) {
	key, rest, err := getString(b)
	if err != nil {
		return DeleteRequest{}, err
	}
	if len(rest) != 0 {
		return DeleteRequest{}, errors.New("trailing bytes in DeleteRequest")
	}
	return DeleteRequest{Key: key}, nil
}

func EncodeGetResponse(r GetResponse) []byte {
	return putString(make([]byte, 0, 4+len(r.Value)), r.Value)
}

func DecodeGetResponse(b []byte) (GetResponse, error) {
	value, rest, err := getString(b)
	if err != nil {
		return GetResponse{}, err
	}
	if len(rest) != 0 {
		return GetResponse{}, errors.New("trailing bytes in GetResponse")
	}
	return GetResponse{Value: value}, nil
}

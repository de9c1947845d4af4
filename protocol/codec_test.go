package protocol_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/aistorehq/kvstore/protocol"
)

// chunkedReader dribbles bytes out n at a time, to exercise ReadFrame's
// accumulation loop the way a slow TCP peer would.
type chunkedReader struct {
	data []byte
	step int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.step
	if n > len(p) {
		n = len(p)
	}
	if n > len(c.data) {
		n = len(c.data)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

// zeroThenEOFReader's first Read obeys io.Reader's contract of returning
// (0, nil) to mean "nothing yet, try again" before eventually closing.
type zeroThenEOFReader struct{ reads int }

func (z *zeroThenEOFReader) Read(p []byte) (int, error) {
	z.reads++
	if z.reads == 1 {
		return 0, nil
	}
	return 0, io.EOF
}

var _ = Describe("Frame", func() {
	It("round-trips encode/decode for structured payloads", func() {
		payload := protocol.EncodeSetRequest(protocol.SetRequest{Key: "hello", Value: "world"})
		frame := protocol.EncodeFrame(protocol.SET, payload)

		tag, got, err := protocol.ReadFrame(bytes.NewReader(frame))
		Expect(err).NotTo(HaveOccurred())
		Expect(tag).To(Equal(protocol.SET))

		decoded, err := protocol.DecodeSetRequest(got)
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(protocol.SetRequest{Key: "hello", Value: "world"}))
	})

	It("round-trips an empty-payload frame", func() {
		frame := protocol.EncodeFrame(protocol.PING, nil)
		tag, payload, err := protocol.ReadFrame(bytes.NewReader(frame))
		Expect(err).NotTo(HaveOccurred())
		Expect(tag).To(Equal(protocol.PING))
		Expect(payload).To(BeEmpty())
	})

	It("reassembles a frame delivered across many short reads", func() {
		payload := protocol.EncodeSetRequest(protocol.SetRequest{Key: "k", Value: strings.Repeat("v", 5000)})
		frame := protocol.EncodeFrame(protocol.SET, payload)

		tag, got, err := protocol.ReadFrame(&chunkedReader{data: frame, step: 7})
		Expect(err).NotTo(HaveOccurred())
		Expect(tag).To(Equal(protocol.SET))
		Expect(got).To(Equal(payload))
	})

	It("accepts a bare single-byte legacy response", func() {
		tag, payload, err := protocol.ReadFrame(bytes.NewReader([]byte{byte(protocol.PONG)}))
		Expect(err).NotTo(HaveOccurred())
		Expect(tag).To(Equal(protocol.PONG))
		Expect(payload).To(BeEmpty())
	})

	It("rejects a frame whose declared length exceeds the packet byte limit", func() {
		var hdr [5]byte
		hdr[0] = byte(protocol.SET)
		binary.BigEndian.PutUint32(hdr[1:], protocol.PacketByteLimit+1)

		_, _, err := protocol.ReadFrame(bytes.NewReader(hdr[:]))
		Expect(err).To(MatchError(protocol.ErrOversizedFrame))
	})

	It("reports NoDataReceived on a clean close before any data", func() {
		_, _, err := protocol.ReadFrame(bytes.NewReader(nil))
		Expect(err).To(MatchError(protocol.ErrNoDataReceived))
	})

	It("reports EmptyTag when the first read returns zero bytes with no error", func() {
		_, _, err := protocol.ReadFrame(&zeroThenEOFReader{})
		Expect(err).To(MatchError(protocol.ErrEmptyTag))
	})

	It("reports NoDataReceived on a truncated frame", func() {
		frame := protocol.EncodeFrame(protocol.SET, protocol.EncodeSetRequest(protocol.SetRequest{Key: "k", Value: "v"}))
		_, _, err := protocol.ReadFrame(bytes.NewReader(frame[:len(frame)-2]))
		Expect(err).To(MatchError(protocol.ErrNoDataReceived))
	})
})

var _ = Describe("structured records", func() {
	It("round-trips GetRequest/GetResponse/DeleteRequest", func() {
		gr := protocol.GetRequest{Key: "k"}
		decodedGR, err := protocol.DecodeGetRequest(protocol.EncodeGetRequest(gr))
		Expect(err).NotTo(HaveOccurred())
		Expect(decodedGR).To(Equal(gr))

		resp := protocol.GetResponse{Value: "world"}
		decodedResp, err := protocol.DecodeGetResponse(protocol.EncodeGetResponse(resp))
		Expect(err).NotTo(HaveOccurred())
		Expect(decodedResp).To(Equal(resp))

		dr := protocol.DeleteRequest{Key: "k"}
		decodedDR, err := protocol.DecodeDeleteRequest(protocol.EncodeDeleteRequest(dr))
		Expect(err).NotTo(HaveOccurred())
		Expect(decodedDR).To(Equal(dr))
	})

	It("rejects truncated records", func() {
		_, err := protocol.DecodeGetRequest([]byte{0, 0, 0, 10, 'a', 'b'})
		Expect(err).To(HaveOccurred())
	})
})

package session_test

import (
	"net"
	"testing"
	"time"

	"github.com/aistorehq/kvstore/protocol"
	"github.com/aistorehq/kvstore/session"
	"github.com/aistorehq/kvstore/store"
)

func serve(t *testing.T, st session.Store) (client net.Conn, closeFn func()) {
	t.Helper()
	server, client := net.Pipe()
	s := session.New(server, st, 0, nil)
	done := make(chan struct{})
	go func() {
		s.Serve()
		close(done)
	}()
	return client, func() {
		client.Close()
		<-done
	}
}

func roundTrip(t *testing.T, conn net.Conn, tag protocol.Tag, payload []byte) (protocol.Tag, []byte) {
	t.Helper()
	if err := protocol.WriteFrame(conn, tag, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	respTag, respPayload, err := protocol.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return respTag, respPayload
}

func TestPing(t *testing.T) {
	conn, closeFn := serve(t, store.New(1))
	defer closeFn()

	tag, _ := roundTrip(t, conn, protocol.PING, nil)
	if tag != protocol.PONG {
		t.Fatalf("got %s, want PONG", tag)
	}
}

func TestSetThenGet(t *testing.T) {
	conn, closeFn := serve(t, store.New(1))
	defer closeFn()

	tag, _ := roundTrip(t, conn, protocol.SET, protocol.EncodeSetRequest(protocol.SetRequest{Key: "k", Value: "v"}))
	if tag != protocol.SET_OK {
		t.Fatalf("SET got %s, want SET_OK", tag)
	}

	tag, payload := roundTrip(t, conn, protocol.GET, protocol.EncodeGetRequest(protocol.GetRequest{Key: "k"}))
	if tag != protocol.GET_OK {
		t.Fatalf("GET got %s, want GET_OK", tag)
	}
	resp, err := protocol.DecodeGetResponse(payload)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Value != "v" {
		t.Fatalf("got value %q, want %q", resp.Value, "v")
	}
}

func TestGetMiss(t *testing.T) {
	conn, closeFn := serve(t, store.New(1))
	defer closeFn()

	tag, _ := roundTrip(t, conn, protocol.GET, protocol.EncodeGetRequest(protocol.GetRequest{Key: "absent"}))
	if tag != protocol.ERROR {
		t.Fatalf("got %s, want ERROR", tag)
	}
}

func TestDeleteAndClear(t *testing.T) {
	conn, closeFn := serve(t, store.New(1))
	defer closeFn()

	roundTrip(t, conn, protocol.SET, protocol.EncodeSetRequest(protocol.SetRequest{Key: "k", Value: "v"}))

	tag, _ := roundTrip(t, conn, protocol.DELETE, protocol.EncodeDeleteRequest(protocol.DeleteRequest{Key: "k"}))
	if tag != protocol.DELETE_OK {
		t.Fatalf("DELETE got %s, want DELETE_OK", tag)
	}

	tag, _ = roundTrip(t, conn, protocol.DELETE, protocol.EncodeDeleteRequest(protocol.DeleteRequest{Key: "k"}))
	if tag != protocol.ERROR {
		t.Fatalf("DELETE of absent key got %s, want ERROR", tag)
	}

	roundTrip(t, conn, protocol.SET, protocol.EncodeSetRequest(protocol.SetRequest{Key: "a", Value: "1"}))
	tag, _ = roundTrip(t, conn, protocol.CLEAR, nil)
	if tag != protocol.CLEAR_OK {
		t.Fatalf("CLEAR got %s, want CLEAR_OK", tag)
	}
	tag, _ = roundTrip(t, conn, protocol.GET, protocol.EncodeGetRequest(protocol.GetRequest{Key: "a"}))
	if tag != protocol.ERROR {
		t.Fatalf("post-clear GET got %s, want ERROR", tag)
	}
}

func TestUnknownTagIsPacketInvalidAndSessionSurvives(t *testing.T) {
	conn, closeFn := serve(t, store.New(1))
	defer closeFn()

	tag, _ := roundTrip(t, conn, protocol.Tag(0x99), nil)
	if tag != protocol.PACKET_INVALID {
		t.Fatalf("got %s, want PACKET_INVALID", tag)
	}

	// session must still be alive for a follow-up request
	tag, _ = roundTrip(t, conn, protocol.PING, nil)
	if tag != protocol.PONG {
		t.Fatalf("got %s, want PONG after PACKET_INVALID", tag)
	}
}

func TestTruncatedSetPayloadIsPacketInvalid(t *testing.T) {
	conn, closeFn := serve(t, store.New(1))
	defer closeFn()

	tag, _ := roundTrip(t, conn, protocol.SET, []byte{0, 0, 0, 5, 'k'})
	if tag != protocol.PACKET_INVALID {
		t.Fatalf("got %s, want PACKET_INVALID", tag)
	}
}

func TestPerRequestDeadlineClosesSessionOnSilence(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	s := session.New(server, store.New(1), 20*time.Millisecond, nil)
	done := make(chan struct{})
	go func() {
		s.Serve()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session did not close after request deadline expired")
	}
}

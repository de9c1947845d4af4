// Package session implements the per-connection server state machine:
// read one frame, dispatch onto the Store, write one response frame,
// repeat until the peer disconnects or a fatal I/O error occurs.
package session

import (
	"errors"
	"net"
	"time"

	"github.com/teris-io/shortid"

	"github.com/aistorehq/kvstore/internal/nlog"
	"github.com/aistorehq/kvstore/protocol"
	"github.com/aistorehq/kvstore/stats"
)

// Store is the subset of store.Store a session needs; defined here so
// sessions can be tested against a fake.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
	Clear() error
}

// Session owns one TCP connection and serves request frames against st
// until the peer disconnects or a write/read fails fatally.
type Session struct {
	conn    net.Conn
	st      Store
	timeout time.Duration
	stats   *stats.Registry
	id      string
}

// New wires a freshly accepted connection to the shared store. timeout,
// if non-zero, is applied as a per-request read+dispatch+write deadline
//; stats may be nil.
func New(conn net.Conn, st Store, timeout time.Duration, stats *stats.Registry) *Session {
	id, _ := shortid.Generate()
	return &Session{conn: conn, st: st, timeout: timeout, stats: stats, id: id}
}

// Serve runs the session's Idle/Dispatching/Writing loop until Closed.
func (s *Session) Serve() {
	defer s.conn.Close()
	if s.stats != nil {
		s.stats.SessionsTotal.Inc()
	}
	nlog.Infof("session %s: accepted %s", s.id, s.conn.RemoteAddr())

	for {
		if s.timeout > 0 {
			if err := s.conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
				nlog.Errorf("session %s: set deadline: %v", s.id, err)
				return
			}
		}

		tag, payload, err := protocol.ReadFrame(s.conn)
		if err != nil {
			if errors.Is(err, protocol.ErrOversizedFrame) {
				s.countProtoErr("oversized")
				if werr := protocol.WriteFrame(s.conn, protocol.PACKET_INVALID, nil); werr != nil {
					nlog.Errorf("session %s: write PACKET_INVALID: %v", s.id, werr)
					return
				}
				continue
			}
			nlog.Infof("session %s: closing: %v", s.id, err)
			return
		}

		resp, respPayload := s.dispatch(tag, payload)
		if err := protocol.WriteFrame(s.conn, resp, respPayload); err != nil {
			nlog.Errorf("session %s: write %s: %v", s.id, resp, err)
			return
		}
	}
}

func (s *Session) countProtoErr(reason string) {
	if s.stats != nil {
		s.stats.ProtoErrsTotal.WithLabelValues(reason).Inc()
	}
}

func (s *Session) countOp(op string) {
	if s.stats != nil {
		s.stats.OpsTotal.WithLabelValues(op).Inc()
	}
}

// dispatch implements the tag dispatch table: decode
// failures and unknown tags yield PACKET_INVALID and keep the session
// alive; Store semantic errors (not-found, poisoned) yield ERROR.
func (s *Session) dispatch(tag protocol.Tag, payload []byte) (protocol.Tag, []byte) {
	switch tag {
	case protocol.PING:
		return protocol.PONG, nil

	case protocol.SET:
		req, err := protocol.DecodeSetRequest(payload)
		if err != nil {
			s.countProtoErr("decode")
			nlog.Infof("session %s: %v", s.id, protocol.ErrDecodeFailed(err))
			return protocol.PACKET_INVALID, nil
		}
		s.countOp("set")
		if err := s.st.Set(req.Key, req.Value); err != nil {
			return protocol.ERROR, nil
		}
		return protocol.SET_OK, nil

	case protocol.GET:
		req, err := protocol.DecodeGetRequest(payload)
		if err != nil {
			s.countProtoErr("decode")
			nlog.Infof("session %s: %v", s.id, protocol.ErrDecodeFailed(err))
			return protocol.PACKET_INVALID, nil
		}
		s.countOp("get")
		value, err := s.st.Get(req.Key)
		if err != nil {
			return protocol.ERROR, nil
		}
		return protocol.GET_OK, protocol.EncodeGetResponse(protocol.GetResponse{Value: value})

	case protocol.DELETE:
		req, err := protocol.DecodeDeleteRequest(payload)
		if err != nil {
			s.countProtoErr("decode")
			nlog.Infof("session %s: %v", s.id, protocol.ErrDecodeFailed(err))
			return protocol.PACKET_INVALID, nil
		}
		s.countOp("delete")
		if err := s.st.Delete(req.Key); err != nil {
			return protocol.ERROR, nil
		}
		return protocol.DELETE_OK, nil

	case protocol.CLEAR:
		s.countOp("clear")
		if err := s.st.Clear(); err != nil {
			return protocol.ERROR, nil
		}
		return protocol.CLEAR_OK, nil

	default:
		s.countProtoErr("unknown-tag")
		return protocol.PACKET_INVALID, nil
	}
}

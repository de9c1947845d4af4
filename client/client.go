// Package client is the thin request/response façade applications use:
// it checks a connection out of the pool, speaks one protocol exchange
// over it, and releases or drops it depending on the outcome.
package client

import (
	"context"
	"fmt"

	"github.com/aistorehq/kvstore/config"
	"github.com/aistorehq/kvstore/internal/cos"
	"github.com/aistorehq/kvstore/pool"
	"github.com/aistorehq/kvstore/protocol"
	"github.com/aistorehq/kvstore/stats"
)

// ErrInvalidResponse is returned when the server answers with a tag other
// than the expected success tag. Set, Get and Delete map ERROR to a Store
// error instead; Ping and Clear report ERROR as ErrInvalidResponse too.
type ErrInvalidResponse struct {
	Got protocol.Tag
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("kvstore: unexpected response tag %s", e.Got)
}

// Client is a pooled connection to one kvstore server.
type Client struct {
	pool *pool.Pool
}

// New creates a Client and its underlying connection pool from cfg.
func New(cfg config.ClientConfig, stats *stats.Registry) *Client {
	return &Client{pool: pool.New(cfg, stats)}
}

// Close releases the pool's resources. The Client must not be used
// afterward.
func (c *Client) Close() { c.pool.Close() }

// exchange checks out a connection, writes one request frame, reads one
// response frame, and classifies the outcome: an I/O failure drops the
// connection, anything else releases it back to the pool.
func (c *Client) exchange(ctx context.Context, tag protocol.Tag, payload []byte) (protocol.Tag, []byte, error) {
	conn, err := c.pool.Get(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("kvstore: %w", err)
	}

	if err := protocol.WriteFrame(conn, tag, payload); err != nil {
		conn.Drop()
		return 0, nil, fmt.Errorf("kvstore: write: %w", err)
	}
	respTag, respPayload, err := protocol.ReadFrame(conn)
	if err != nil {
		conn.Drop()
		return 0, nil, fmt.Errorf("kvstore: read: %w", err)
	}
	conn.Release()
	return respTag, respPayload, nil
}

// Ping verifies connectivity to the server.
func (c *Client) Ping(ctx context.Context) error {
	tag, _, err := c.exchange(ctx, protocol.PING, nil)
	if err != nil {
		return err
	}
	if tag != protocol.PONG {
		return &ErrInvalidResponse{Got: tag}
	}
	return nil
}

// Set inserts or overwrites the binding for key.
func (c *Client) Set(ctx context.Context, key, value string) error {
	tag, _, err := c.exchange(ctx, protocol.SET, protocol.EncodeSetRequest(protocol.SetRequest{Key: key, Value: value}))
	if err != nil {
		return err
	}
	switch tag {
	case protocol.SET_OK:
		return nil
	case protocol.ERROR:
		// Set only ever fails server-side on a poisoned shard; the client
		// has no shard index to report.
		return cos.NewErrPoisoned(-1)
	default:
		return &ErrInvalidResponse{Got: tag}
	}
}

// Get returns the value for key, or ErrNotFound if it isn't present.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	tag, payload, err := c.exchange(ctx, protocol.GET, protocol.EncodeGetRequest(protocol.GetRequest{Key: key}))
	if err != nil {
		return "", err
	}
	switch tag {
	case protocol.GET_OK:
		resp, err := protocol.DecodeGetResponse(payload)
		if err != nil {
			return "", fmt.Errorf("kvstore: decode response: %w", err)
		}
		return resp.Value, nil
	case protocol.ERROR:
		return "", cos.NewErrNotFound(key)
	default:
		return "", &ErrInvalidResponse{Got: tag}
	}
}

// Delete removes the binding for key, or returns ErrNotFound if absent.
func (c *Client) Delete(ctx context.Context, key string) error {
	tag, _, err := c.exchange(ctx, protocol.DELETE, protocol.EncodeDeleteRequest(protocol.DeleteRequest{Key: key}))
	if err != nil {
		return err
	}
	switch tag {
	case protocol.DELETE_OK:
		return nil
	case protocol.ERROR:
		return cos.NewErrNotFound(key)
	default:
		return &ErrInvalidResponse{Got: tag}
	}
}

// Clear removes every binding.
func (c *Client) Clear(ctx context.Context) error {
	tag, _, err := c.exchange(ctx, protocol.CLEAR, nil)
	if err != nil {
		return err
	}
	if tag != protocol.CLEAR_OK {
		return &ErrInvalidResponse{Got: tag}
	}
	return nil
}

// Package server implements the listening Acceptor: bind, accept
// connections up to a soft concurrency cap, and hand each one to a
// session.Session.
package server

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/aistorehq/kvstore/config"
	"github.com/aistorehq/kvstore/internal/nlog"
	"github.com/aistorehq/kvstore/session"
	"github.com/aistorehq/kvstore/stats"
	"github.com/aistorehq/kvstore/store"
)

// Acceptor binds a listening socket and spawns one session per accepted
// connection, bounded by MaxConns.
type Acceptor struct {
	cfg   config.ServerConfig
	store *store.Store
	stats *stats.Registry
	ln    net.Listener
}

// New constructs an Acceptor serving the given Store; it does not bind
// until Serve is called.
func New(cfg config.ServerConfig, st *store.Store, stats *stats.Registry) *Acceptor {
	return &Acceptor{cfg: cfg, store: st, stats: stats}
}

// Serve binds the listening address and runs the accept loop until ctx is
// canceled. A bind failure is fatal and returned immediately; a transient
// accept failure is logged and the loop continues.
func (a *Acceptor) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	a.ln = ln
	nlog.Infof("server: listening on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		a.ln.Close()
	}()

	sem := make(chan struct{}, a.cfg.MaxConns)
	grp, _ := errgroup.WithContext(ctx)

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return grp.Wait()
			default:
			}
			nlog.Warningf("server: accept: %v", err)
			continue
		}

		select {
		case sem <- struct{}{}:
		default:
			nlog.Warningf("server: at capacity (%d), rejecting %s", a.cfg.MaxConns, conn.RemoteAddr())
			conn.Close()
			continue
		}

		grp.Go(func() error {
			defer func() { <-sem }()
			s := session.New(conn, a.store, a.cfg.RequestTimeout, a.stats)
			s.Serve()
			return nil
		})
	}
}

// Addr returns the bound address; valid only after Serve has started.
func (a *Acceptor) Addr() net.Addr {
	if a.ln == nil {
		return nil
	}
	return a.ln.Addr()
}

// Command kvstore-server runs a standalone kvstore listener. It is
// wiring only: flag parsing, construction, and Serve. On SIGINT or
// SIGTERM it stops accepting and waits for open sessions to end. Process
// supervision (systemd units, k8s manifests) is out of scope.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/aistorehq/kvstore/config"
	"github.com/aistorehq/kvstore/internal/nlog"
	"github.com/aistorehq/kvstore/server"
	"github.com/aistorehq/kvstore/stats"
	"github.com/aistorehq/kvstore/store"
)

func main() {
	cfg := config.DefaultServerConfig()
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st := store.New(cfg.NumShards)
	reg := stats.New()
	acc := server.New(cfg, st, reg)

	if err := acc.Serve(ctx); err != nil {
		nlog.Errorf("server: %v", err)
		os.Exit(1)
	}
}

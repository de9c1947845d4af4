// Command kvstore-client is a minimal CLI exercising one operation
// against a kvstore server: ping, set, get, delete or clear. It exists
// to drive the library end to end, not as a full-featured client tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aistorehq/kvstore/client"
	"github.com/aistorehq/kvstore/config"
)

func main() {
	cfg := config.DefaultClientConfig("127.0.0.1", config.DefaultPort)
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: kvstore-client [flags] ping|set key value|get key|delete key|clear")
		os.Exit(2)
	}

	c := client.New(cfg, nil)
	defer c.Close()
	ctx := context.Background()

	var err error
	switch args[0] {
	case "ping":
		err = c.Ping(ctx)
	case "set":
		if len(args) != 3 {
			fmt.Fprintln(os.Stderr, "usage: set key value")
			os.Exit(2)
		}
		err = c.Set(ctx, args[1], args[2])
	case "get":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: get key")
			os.Exit(2)
		}
		var value string
		value, err = c.Get(ctx, args[1])
		if err == nil {
			fmt.Println(value)
		}
	case "delete":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: delete key")
			os.Exit(2)
		}
		err = c.Delete(ctx, args[1])
	case "clear":
		err = c.Clear(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// Package config holds the plain-struct configuration for the server and
// the client, with flag.FlagSet bindings in a flag-first style: there is
// no persisted state to configure, so there are no YAML/JSON config
// files to load.
package config

import (
	"flag"
	"time"
)

const DefaultPort = 13535

// ClientConfig is the client's connection-pool configuration.
type ClientConfig struct {
	Host              string
	Port              int
	MinConnections    int
	MaxConnections    int
	ConnectionTimeout time.Duration
	IdleTimeout       time.Duration
}

func DefaultClientConfig(host string, port int) ClientConfig {
	return ClientConfig{
		Host:              host,
		Port:              port,
		MinConnections:    1,
		MaxConnections:    10,
		ConnectionTimeout: 30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// RegisterFlags binds c's fields onto fs so a cmd/ binary can expose them
// as flags without owning any parsing logic itself.
func (c *ClientConfig) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "kvstore server host")
	fs.IntVar(&c.Port, "port", c.Port, "kvstore server port")
	fs.IntVar(&c.MinConnections, "min-connections", c.MinConnections, "connections to pre-warm at startup")
	fs.IntVar(&c.MaxConnections, "max-connections", c.MaxConnections, "maximum pooled connections")
	fs.DurationVar(&c.ConnectionTimeout, "connection-timeout", c.ConnectionTimeout, "max time to wait for a pooled connection")
	fs.DurationVar(&c.IdleTimeout, "idle-timeout", c.IdleTimeout, "max idle time before a pooled connection is evicted")
}

// ServerConfig mirrors ClientConfig on the listening side.
type ServerConfig struct {
	Host           string
	Port           int
	MaxConns       int
	RequestTimeout time.Duration
	NumShards      int
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           DefaultPort,
		MaxConns:       1024,
		RequestTimeout: 30 * time.Second,
		NumShards:      1,
	}
}

func (c *ServerConfig) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "address to listen on")
	fs.IntVar(&c.Port, "port", c.Port, "port to listen on")
	fs.IntVar(&c.MaxConns, "max-conns", c.MaxConns, "soft cap on concurrent sessions")
	fs.DurationVar(&c.RequestTimeout, "request-timeout", c.RequestTimeout, "per-request read/write deadline")
	fs.IntVar(&c.NumShards, "shards", c.NumShards, "number of store shards")
}

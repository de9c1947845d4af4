// Package stats maintains the in-process Prometheus counters and gauges
// the session and pool update. It does not expose them
// over HTTP: wiring a Gatherer into a /metrics endpoint is left to
// whatever process embeds this package.
package stats

import "github.com/prometheus/client_golang/prometheus"

type Registry struct {
	reg *prometheus.Registry

	OpsTotal       *prometheus.CounterVec
	SessionsTotal  prometheus.Counter
	ProtoErrsTotal *prometheus.CounterVec
	PoolSize       prometheus.Gauge
	PoolIdle       prometheus.Gauge
}

// New creates a Registry with all counters/gauges pre-registered.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kv_store_ops_total",
			Help: "Number of Store operations, by op (set/get/delete/clear).",
		}, []string{"op"}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kv_sessions_total",
			Help: "Number of server sessions accepted.",
		}),
		ProtoErrsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kv_protocol_errors_total",
			Help: "Number of malformed frames rejected with PACKET_INVALID, by reason.",
		}, []string{"reason"}),
		PoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kv_pool_size",
			Help: "Current number of connections owned by the client pool (idle + in-use).",
		}),
		PoolIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kv_pool_idle",
			Help: "Current number of idle connections in the client pool.",
		}),
	}

	reg.MustRegister(r.OpsTotal, r.SessionsTotal, r.ProtoErrsTotal, r.PoolSize, r.PoolIdle)
	return r
}

// Gatherer exposes the underlying registry for an outer process to serve
// over HTTP (e.g. promhttp.HandlerFor(reg.Gatherer(), ...)).
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Package metrics exposes operational Prometheus gauges/counters for a
// node — new surface per SPEC_FULL.md §9.1, grounded in the shared
// prometheus/client_golang dependency carried by grafana-tempo and
// ethereum-go-ethereum.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the collectors one node registers.
type Metrics struct {
	CacheEntries   prometheus.Gauge
	CacheBytes     prometheus.Gauge
	RegistrySize   prometheus.Gauge
	RequestsTotal  *prometheus.CounterVec
	FanoutDuration prometheus.Histogram
}

// New registers and returns a fresh Metrics bundle on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ringcache",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Number of entries currently stored in the local cache.",
		}),
		CacheBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ringcache",
			Subsystem: "cache",
			Name:      "characters",
			Help:      "Aggregate character count of stored keys and values.",
		}),
		RegistrySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ringcache",
			Subsystem: "membership",
			Name:      "registry_size",
			Help:      "Number of known cluster members, including self.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ringcache",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Client API requests by verb and outcome code.",
		}, []string{"verb", "code"}),
		FanoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ringcache",
			Subsystem: "api",
			Name:      "fanout_duration_seconds",
			Help:      "Time spent fanning out a request to its owner set.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.CacheEntries, m.CacheBytes, m.RegistrySize, m.RequestsTotal, m.FanoutDuration)
	return m
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// DefaultNamespace is the metric namespace used when none is configured.
const DefaultNamespace = "quaestor"

// Collector owns the Prometheus registry and all metric groups.
type Collector struct {
	registry *prometheus.Registry

	// Ledger tracks evidence capture and chain integrity metrics.
	Ledger *LedgerMetrics
}

// NewCollector creates a collector with a fresh registry, standard Go
// runtime and process collectors, and all ledger metrics registered.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		registry: registry,
		Ledger:   NewLedgerMetrics(namespace, registry),
	}
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

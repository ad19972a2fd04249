package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meriemdhouibi13/hashtablesmd/core"
)

// metrics are registered per server so that several servers can live
// in one process.
type metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	entries    prometheus.Gauge
	loadFactor prometheus.Gauge
	wsClients  prometheus.Gauge
}

func newMetrics(size int) *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hashtable_operations_total",
			Help: "Table operations by op and outcome",
		}, []string{"op", "outcome"}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hashtable_entries",
			Help: "Number of entries in the table",
		}),
		loadFactor: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hashtable_load_factor",
			Help: "Entries per bucket",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hashtable_websocket_clients",
			Help: "Connected websocket log subscribers",
		}),
	}
	buckets := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hashtable_buckets",
		Help: "Number of buckets in the table",
	})
	buckets.Set(float64(size))
	m.registry.MustRegister(m.operations, m.entries, m.loadFactor, m.wsClients, buckets)
	return m
}

// observe records a completed operation.  Callers hold the table lock.
func (m *metrics) observe(res core.Result, table *core.Table) {
	m.operations.WithLabelValues(res.Op.String(), res.Outcome.String()).Inc()
	m.entries.Set(float64(table.Len()))
	m.loadFactor.Set(table.LoadFactor())
}

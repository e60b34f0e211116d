package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the load counters exposed on /metrics. A nil *Collector
// is valid and records nothing.
type Collector struct {
	registry     *prometheus.Registry
	loads        *prometheus.CounterVec
	rowsRead     prometheus.Counter
	rowsRetained prometheus.Counter
	lastRetained prometheus.Gauge
	loadSeconds  prometheus.Histogram
}

// New creates a Collector on its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventdash_loads_total",
			Help: "Export loads by result.",
		}, []string{"result"}),
		rowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventdash_rows_read_total",
			Help: "Data rows read from exports.",
		}),
		rowsRetained: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventdash_rows_retained_total",
			Help: "Rows kept after normalization.",
		}),
		lastRetained: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eventdash_dataset_events",
			Help: "Events in the current dataset.",
		}),
		loadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "eventdash_load_duration_seconds",
			Help:    "Time spent loading one export.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	c.registry.MustRegister(c.loads, c.rowsRead, c.rowsRetained, c.lastRetained, c.loadSeconds)
	return c
}

func (c *Collector) LoadSucceeded(read, retained int, took time.Duration) {
	if c == nil {
		return
	}
	c.loads.WithLabelValues("ok").Inc()
	c.rowsRead.Add(float64(read))
	c.rowsRetained.Add(float64(retained))
	c.lastRetained.Set(float64(retained))
	c.loadSeconds.Observe(took.Seconds())
}

// LoadFailed counts a fatal load error; stage is "ingest" or "storage".
func (c *Collector) LoadFailed(stage string) {
	if c == nil {
		return
	}
	c.loads.WithLabelValues("error_" + stage).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

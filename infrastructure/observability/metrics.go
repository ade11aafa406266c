package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Each
// collector owns its registry so tests can create as many as they need.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Layout metrics
	TickDuration     prometheus.Histogram
	Ticks            prometheus.Counter
	Nodes            prometheus.Gauge
	Links            prometheus.Gauge
	Alpha            prometheus.Gauge
	NodesAdded       prometheus.Counter
	NodesRemoved     prometheus.Counter
	EntitiesRejected prometheus.Counter
	NodeResets       prometheus.Counter

	// Frame stream metrics
	Subscribers   prometheus.Gauge
	FramesDropped prometheus.Counter
}

// NewCollector creates a collector with every metric registered under namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "tick_duration_seconds",
			Help:      "Time spent computing one simulation tick",
			// a 60Hz frame is ~16.7ms
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.0167, 0.033},
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "ticks_total",
			Help:      "Total number of simulation ticks",
		}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "nodes",
			Help:      "Nodes currently laid out",
		}),
		Links: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "links",
			Help:      "Similarity links currently laid out",
		}),
		Alpha: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "alpha",
			Help:      "Current simulation energy",
		}),
		NodesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "nodes_added_total",
			Help:      "Nodes created by reconciliation",
		}),
		NodesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "nodes_removed_total",
			Help:      "Nodes removed by reconciliation",
		}),
		EntitiesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "entities_rejected_total",
			Help:      "Entities rejected by reconciliation validation",
		}),
		NodeResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "node_resets_total",
			Help:      "Nodes reset after a non-finite position",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "subscribers",
			Help:      "Active frame stream subscribers",
		}),
		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped for slow subscribers",
		}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.TickDuration,
		c.Ticks,
		c.Nodes,
		c.Links,
		c.Alpha,
		c.NodesAdded,
		c.NodesRemoved,
		c.EntitiesRejected,
		c.NodeResets,
		c.Subscribers,
		c.FramesDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveTick records one simulation step
func (c *Collector) ObserveTick(duration time.Duration, nodes, links int, alpha float64) {
	c.TickDuration.Observe(duration.Seconds())
	c.Ticks.Inc()
	c.Nodes.Set(float64(nodes))
	c.Links.Set(float64(links))
	c.Alpha.Set(alpha)
}

// ObserveReconcile records the outcome of one reconciliation
func (c *Collector) ObserveReconcile(added, removed, rejected int) {
	c.NodesAdded.Add(float64(added))
	c.NodesRemoved.Add(float64(removed))
	c.EntitiesRejected.Add(float64(rejected))
}

// ObserveNodeReset records a non-finite node being reset
func (c *Collector) ObserveNodeReset() {
	c.NodeResets.Inc()
}

// ObserveSubscribers records the current stream subscriber count
func (c *Collector) ObserveSubscribers(n int) {
	c.Subscribers.Set(float64(n))
}

// ObserveDroppedFrame records a frame a slow subscriber never saw
func (c *Collector) ObserveDroppedFrame() {
	c.FramesDropped.Inc()
}

// ObserveHTTP records one served request
func (c *Collector) ObserveHTTP(method, route, status string, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

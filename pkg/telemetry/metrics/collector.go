package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"outpost-hq/gridfront/pkg/traffic"
)

// Collector exposes a traffic store's counters as Prometheus metrics. It
// implements prometheus.Collector by snapshotting the store at scrape time.
type Collector struct {
	store *traffic.Store

	routeBytesDesc *prometheus.Desc
	httpBytesDesc  *prometheus.Desc
	wsBytesDesc    *prometheus.Desc
	routesDesc     *prometheus.Desc
}

// NewCollector creates a collector for store. namespace prefixes all metric
// names.
func NewCollector(store *traffic.Store, namespace string) *Collector {
	return &Collector{
		store: store,
		routeBytesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "route_bytes_total"),
			"Bytes proxied per route and direction.",
			[]string{"route", "direction"}, nil,
		),
		httpBytesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "http_bytes_total"),
			"Total HTTP bytes proxied in both directions.",
			nil, nil,
		),
		wsBytesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "websocket_bytes_total"),
			"Total WebSocket payload bytes bridged in both directions.",
			nil, nil,
		),
		routesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "routes"),
			"Number of distinct routes with recorded traffic.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.routeBytesDesc
	ch <- c.httpBytesDesc
	ch <- c.wsBytesDesc
	ch <- c.routesDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snapshot := c.store.Snapshot()

	for _, entry := range snapshot {
		ch <- prometheus.MustNewConstMetric(
			c.routeBytesDesc, prometheus.CounterValue,
			float64(entry.Sent), entry.Route, "sent",
		)
		ch <- prometheus.MustNewConstMetric(
			c.routeBytesDesc, prometheus.CounterValue,
			float64(entry.Received), entry.Route, "received",
		)
	}

	ch <- prometheus.MustNewConstMetric(
		c.httpBytesDesc, prometheus.CounterValue, float64(c.store.HTTPTotal()),
	)
	ch <- prometheus.MustNewConstMetric(
		c.wsBytesDesc, prometheus.CounterValue, float64(c.store.WebSocketTotal()),
	)
	ch <- prometheus.MustNewConstMetric(
		c.routesDesc, prometheus.GaugeValue, float64(len(snapshot)),
	)
}

// Handler returns an http.Handler serving the Prometheus exposition for
// store, including the standard Go runtime and process collectors.
func Handler(store *traffic.Store, namespace string) (http.Handler, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewCollector(store, namespace)); err != nil {
		return nil, err
	}
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

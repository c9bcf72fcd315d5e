// Package metrics exposes the traffic counters to Prometheus.
//
// The collector reads the traffic store's snapshot at scrape time and emits
// const metrics, so the relay and bridge hot paths never pay for metric
// updates. Metric names:
//
//	<namespace>_route_bytes_total{route,direction}
//	<namespace>_http_bytes_total
//	<namespace>_websocket_bytes_total
//	<namespace>_routes
package metrics

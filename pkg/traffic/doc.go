// Package traffic provides the shared traffic-accounting store.
//
// Every relayed HTTP request and every bridged WebSocket session reports
// byte counts into a single Store, which readers (the admin endpoints and
// the metrics collector) observe through point-in-time snapshots. The Store
// also owns the process-wide one-shot shutdown flag so that an operator
// control can trigger the same drain path as OS signals.
package traffic

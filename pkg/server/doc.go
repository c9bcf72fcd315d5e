// Package server runs the proxy listener and the admin listener.
//
// The proxy listener carries all forwarded traffic. The admin listener is a
// separate address so health, traffic snapshots, metrics, and the shutdown
// control can never shadow a proxied route.
//
// Shutdown is triggered three ways: an OS signal (SIGINT/SIGTERM), context
// cancellation, or the traffic store's shutdown flag (set via the admin
// POST /shutdown endpoint). All three converge on the same graceful drain.
package server

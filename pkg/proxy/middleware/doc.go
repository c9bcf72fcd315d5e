// Package middleware provides the cross-cutting HTTP middleware for the
// gridfront proxy server: request IDs, structured request logging, and
// panic recovery. Middleware wraps the router; per-request failures inside
// the relay and bridge are handled by those components themselves.
package middleware

// Gridfront is a metering reverse proxy for a single TLS upstream.
//
// It relays HTTP requests and bridges WebSocket sessions to the configured
// backend, accounting every proxied byte per route, and can serve selected
// static subtrees from local directories instead of the backend.
//
// Usage:
//
//	# Start with the default configuration file
//	gridfront run
//
//	# Start with a custom configuration file
//	gridfront run --config /etc/gridfront/config.yaml
//
//	# Validate a configuration file without starting
//	gridfront validate --config /etc/gridfront/config.yaml
//
//	# Show version information
//	gridfront version
package main

func main() {
	Execute()
}

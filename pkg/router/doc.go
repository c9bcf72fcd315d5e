// Package router dispatches inbound requests to the request relay, the
// WebSocket bridge, or local static serving.
//
// Routing is data-driven: each supported upstream layout is a rule table
// built by Layout, and the router walks the table first-match-first. Adding
// a third layout is a table change, not new dispatch code. Transparent mode
// rewrites every static rule into a relay rule, forcing all paths through
// to the upstream.
package router

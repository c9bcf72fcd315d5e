// Package proxy implements the gridfront proxy engine: the TLS transport to
// the upstream, the HTTP request relay, and the WebSocket bridge.
//
// The engine forwards traffic to exactly one configured upstream host and
// reports byte counts into a shared traffic store. The transport's default
// trust policy deliberately accepts any server certificate because the
// deployment target is a known, fixed backend whose certificate is
// self-signed; see TrustPolicy for the hardened alternative.
package proxy

package proxy

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// TrustPolicy decides how upstream server certificates are verified. It is
// the single swap point for the trust model: relay and bridge code never
// inspect certificates themselves.
type TrustPolicy string

const (
	// TrustInsecure accepts any upstream certificate: no hostname check, no
	// chain validation, no expiry check. This is the default and matches the
	// deployment this tool fronts, where the backend presents a self-signed
	// certificate for a host that is not attacker-controlled.
	TrustInsecure TrustPolicy = "insecure"

	// TrustSystem verifies upstream certificates against the system roots.
	TrustSystem TrustPolicy = "system"
)

// TLSConfig returns the client TLS configuration implementing the policy.
func (p TrustPolicy) TLSConfig() (*tls.Config, error) {
	switch p {
	case TrustInsecure, "":
		return &tls.Config{InsecureSkipVerify: true}, nil
	case TrustSystem:
		return &tls.Config{}, nil
	default:
		return nil, fmt.Errorf("unknown trust policy %q", string(p))
	}
}

// TransportConfig contains configuration for the upstream transport.
type TransportConfig struct {
	// Trust selects the certificate trust policy. Default: TrustInsecure.
	Trust TrustPolicy

	// HandshakeTimeout bounds TLS and WebSocket handshakes with the
	// upstream. Default: 10s.
	HandshakeTimeout time.Duration

	// MaxIdleConns caps pooled idle connections to the upstream.
	// Default: 32.
	MaxIdleConns int

	// IdleConnTimeout is how long pooled connections stay open unused.
	// Default: 90s.
	IdleConnTimeout time.Duration
}

// Transport is the outbound HTTPS/WebSocket-capable client shared by every
// relay and bridge instance. It is read-only after construction and safe for
// unbounded concurrent use. HTTP requests reuse pooled connections; each
// bridge dials its own long-lived socket.
type Transport struct {
	http   *http.Transport
	dialer *websocket.Dialer
}

// NewTransport builds the upstream transport. It fails only on local
// configuration errors; no remote certificate content can ever make it fail.
func NewTransport(cfg TransportConfig) (*Transport, error) {
	tlsCfg, err := cfg.Trust.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build trust policy: %w", err)
	}

	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 32
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}

	return &Transport{
		http: &http.Transport{
			TLSClientConfig:     tlsCfg,
			TLSHandshakeTimeout: cfg.HandshakeTimeout,
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConns,
			IdleConnTimeout:     cfg.IdleConnTimeout,
		},
		dialer: &websocket.Dialer{
			TLSClientConfig:  tlsCfg.Clone(),
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}, nil
}

// RoundTrip dispatches one HTTP request to the upstream. Redirects are not
// followed; the response passes back to the caller verbatim.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.http.RoundTrip(req)
}

// Dialer returns the WebSocket dialer for opening upstream sockets. The
// dialer generates a fresh Sec-WebSocket-Key for every handshake.
func (t *Transport) Dialer() *websocket.Dialer {
	return t.dialer
}

// CloseIdleConnections drops pooled upstream connections. Called on
// shutdown after in-flight work has drained.
func (t *Transport) CloseIdleConnections() {
	t.http.CloseIdleConnections()
}

package proxy

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"outpost-hq/gridfront/pkg/traffic"
)

// controlWriteTimeout bounds control-frame writes so a stalled peer cannot
// wedge the opposite direction's pump.
const controlWriteTimeout = 5 * time.Second

// handshakeHeaders are the headers owned by the WebSocket handshake itself.
// They must not be copied onto the outbound upgrade request: the dialer
// generates its own set, including a fresh Sec-WebSocket-Key, because the
// inbound key was cryptographically tied to the inbound handshake.
var handshakeHeaders = []string{
	"Upgrade",
	"Connection",
	"Sec-Websocket-Key",
	"Sec-Websocket-Version",
	"Sec-Websocket-Extensions",
	"Sec-Websocket-Protocol",
}

// Bridge relays WebSocket sessions between inbound clients and a
// freshly-dialed upstream socket, one session per inbound connection.
// Each session runs two pumps: the handler goroutine carries
// client-to-upstream frames and a second goroutine carries
// upstream-to-client frames. Text and binary payload bytes are metered into
// the store's WebSocket aggregate; control frames are forwarded but not
// counted.
type Bridge struct {
	upstream  string
	transport *Transport
	store     *traffic.Store
	upgrader  websocket.Upgrader
	logger    *slog.Logger
}

// NewBridge creates a WebSocket bridge targeting the given upstream
// authority.
func NewBridge(upstream string, transport *Transport, store *traffic.Store) *Bridge {
	return &Bridge{
		upstream:  upstream,
		transport: transport,
		store:     store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 32 * 1024,
			// The proxy fronts a single trusted application; origin
			// enforcement is the backend's concern.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: slog.Default().With("component", "proxy.bridge"),
	}
}

// outboundHeader copies the inbound header set for the upstream handshake,
// dropping the handshake-owned headers. Host is not copied either: the
// dialer derives it from the target URL, which carries the upstream
// authority.
func outboundHeader(inbound http.Header) http.Header {
	header := make(http.Header, len(inbound))
	for key, values := range inbound {
		header[key] = append([]string(nil), values...)
	}
	header.Del("Host")
	for _, key := range handshakeHeaders {
		header.Del(key)
	}
	return header
}

// ServeHTTP implements http.Handler for WebSocket upgrade requests.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session := uuid.NewString()
	logger := b.logger.With("session", session, "route", r.URL.Path)

	client, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logger.Error("inbound upgrade failed", "error", err)
		return
	}
	defer client.Close()

	target := url.URL{
		Scheme:   "wss",
		Host:     b.upstream,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}

	upstream, resp, err := b.transport.Dialer().DialContext(r.Context(), target.String(), outboundHeader(r.Header))
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logger.Error("upstream dial failed",
			"target", target.String(),
			"status", status,
			"error", err,
		)
		return
	}
	defer upstream.Close()

	logger.Debug("bridge established", "target", target.String())

	forwardControlFrames(client, upstream)
	forwardControlFrames(upstream, client)

	// Upstream-to-client runs independently; its termination ends only that
	// direction. When the client-to-upstream pump below returns, the
	// deferred closes tear down both sockets and the goroutine drains out.
	go b.pump(logger.With("direction", "upstream_to_client"), upstream, client)

	b.pump(logger.With("direction", "client_to_upstream"), client, upstream)
}

// pump relays text and binary messages from src to dst until src stops
// yielding them. A close from src is forwarded to dst as a generic close;
// the original close code and reason are not preserved.
func (b *Bridge) pump(logger *slog.Logger, src, dst *websocket.Conn) {
	for {
		messageType, payload, err := src.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("peer closed connection")
			} else {
				logger.Debug("read ended", "error", err)
			}
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = dst.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(controlWriteTimeout))
			return
		}

		if err := dst.WriteMessage(messageType, payload); err != nil {
			logger.Debug("write failed", "error", err)
			return
		}

		b.store.RecordWsTraffic(uint64(len(payload)))
	}
}

// forwardControlFrames wires src's ping and pong frames through to dst
// verbatim. gorilla surfaces control frames via handlers rather than
// ReadMessage, so forwarding happens here instead of in the pumps.
func forwardControlFrames(src, dst *websocket.Conn) {
	src.SetPingHandler(func(data string) error {
		return dst.WriteControl(websocket.PingMessage, []byte(data), time.Now().Add(controlWriteTimeout))
	})
	src.SetPongHandler(func(data string) error {
		return dst.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(controlWriteTimeout))
	})
}

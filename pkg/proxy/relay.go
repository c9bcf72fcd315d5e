package proxy

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"outpost-hq/gridfront/pkg/traffic"
)

// Relay forwards ordinary (non-upgrade) HTTP requests to the upstream and
// streams the response back, metering bytes into the traffic store.
//
// Accounting is approximate on the send side: only requests carrying a
// declared Content-Length add to the route's sent counter, so chunked
// uploads are not pre-accounted. Response bytes are counted exactly, chunk
// by chunk, as they stream through.
type Relay struct {
	upstream  string
	transport *Transport
	store     *traffic.Store
	logger    *slog.Logger
}

// NewRelay creates a request relay targeting the given upstream authority.
func NewRelay(upstream string, transport *Transport, store *traffic.Store) *Relay {
	return &Relay{
		upstream:  upstream,
		transport: transport,
		store:     store,
		logger:    slog.Default().With("component", "proxy.relay"),
	}
}

// ServeHTTP implements http.Handler.
func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := r.URL.Path

	target, err := url.Parse("https://" + rl.upstream + r.URL.RequestURI())
	if err != nil {
		rl.logger.Error("failed to build upstream URI",
			"route", route,
			"error", err,
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	out := r.Clone(r.Context())
	out.URL = target
	out.RequestURI = ""
	// Never leak the proxy's own bind address to the backend.
	out.Host = rl.upstream

	if r.ContentLength > 0 {
		rl.store.RecordSent(route, uint64(r.ContentLength))
	}

	resp, err := rl.transport.RoundTrip(out)
	if err != nil {
		rl.logger.Error("upstream request failed",
			"route", route,
			"method", r.Method,
			"error", err,
		)
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	// Headers and status are forwarded verbatim from the upstream response.
	header := w.Header()
	for key, values := range resp.Header {
		for _, value := range values {
			header.Add(key, value)
		}
	}
	w.WriteHeader(resp.StatusCode)

	mw := &meteredWriter{dst: w, route: route, store: rl.store}
	if _, err := io.Copy(mw, resp.Body); err != nil {
		// The response is already underway; nothing can be surfaced to the
		// client beyond closing the stream.
		rl.logger.Debug("response stream ended early",
			"route", route,
			"error", err,
		)
	}
}

// meteredWriter streams response chunks to the client, counting each chunk
// into the route's received counter and flushing so long-lived responses are
// not held back by server-side buffering.
type meteredWriter struct {
	dst   http.ResponseWriter
	route string
	store *traffic.Store
}

func (mw *meteredWriter) Write(p []byte) (int, error) {
	n, err := mw.dst.Write(p)
	if n > 0 {
		mw.store.RecordReceived(mw.route, uint64(n))
	}
	if f, ok := mw.dst.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}

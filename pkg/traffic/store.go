package traffic

import (
	"sort"
	"sync"
	"sync/atomic"
)

// routeCounters holds the byte counters for a single route. Increments are
// atomic so concurrent relays on the same route never contend once the
// entry exists.
type routeCounters struct {
	sent     atomic.Uint64
	received atomic.Uint64
}

// RouteTraffic is one entry of a Store snapshot.
type RouteTraffic struct {
	// Route is the request path used as the accounting key. Paths are not
	// normalized; "/a" and "/a/" are distinct routes.
	Route string `json:"route"`

	// Sent is the number of bytes proxied from client to upstream.
	Sent uint64 `json:"sent"`

	// Received is the number of bytes proxied from upstream to client.
	Received uint64 `json:"received"`
}

// Total returns the combined byte count for the route.
func (rt RouteTraffic) Total() uint64 {
	return rt.Sent + rt.Received
}

// Store is the concurrent traffic-accounting store shared by all relay and
// bridge operations. Counters are monotonically non-decreasing and are never
// removed for the lifetime of the process. All methods are safe for
// unbounded concurrent callers.
type Store struct {
	mu     sync.RWMutex
	routes map[string]*routeCounters

	httpTotal atomic.Uint64
	wsTotal   atomic.Uint64

	shutdown     atomic.Bool
	shutdownOnce sync.Once
	done         chan struct{}
}

// NewStore creates an empty traffic store.
func NewStore() *Store {
	return &Store{
		routes: make(map[string]*routeCounters),
		done:   make(chan struct{}),
	}
}

// counters returns the counter pair for route, creating it on first use.
func (s *Store) counters(route string) *routeCounters {
	s.mu.RLock()
	rc, ok := s.routes[route]
	s.mu.RUnlock()
	if ok {
		return rc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rc, ok = s.routes[route]; ok {
		return rc
	}
	rc = &routeCounters{}
	s.routes[route] = rc
	return rc
}

// RecordSent adds n client-to-upstream bytes to the route's counters and to
// the process-wide HTTP aggregate.
func (s *Store) RecordSent(route string, n uint64) {
	if n == 0 {
		return
	}
	s.counters(route).sent.Add(n)
	s.httpTotal.Add(n)
}

// RecordReceived adds n upstream-to-client bytes to the route's counters and
// to the process-wide HTTP aggregate.
func (s *Store) RecordReceived(route string, n uint64) {
	if n == 0 {
		return
	}
	s.counters(route).received.Add(n)
	s.httpTotal.Add(n)
}

// RecordWsTraffic adds n WebSocket payload bytes to the process-wide
// WebSocket aggregate. Control frames are not counted by callers.
func (s *Store) RecordWsTraffic(n uint64) {
	if n == 0 {
		return
	}
	s.wsTotal.Add(n)
}

// Restore seeds a route's counters with previously persisted values and
// accounts them into the HTTP aggregate. Intended for startup only, before
// any relay traffic flows.
func (s *Store) Restore(route string, sent, received uint64) {
	rc := s.counters(route)
	rc.sent.Add(sent)
	rc.received.Add(received)
	s.httpTotal.Add(sent + received)
}

// RestoreWebSocketTotal seeds the WebSocket aggregate with a previously
// persisted value. Intended for startup only.
func (s *Store) RestoreWebSocketTotal(n uint64) {
	s.wsTotal.Add(n)
}

// HTTPTotal returns the process-wide HTTP byte aggregate (sent + received
// across all routes).
func (s *Store) HTTPTotal() uint64 {
	return s.httpTotal.Load()
}

// WebSocketTotal returns the process-wide WebSocket payload byte aggregate.
func (s *Store) WebSocketTotal() uint64 {
	return s.wsTotal.Load()
}

// Snapshot returns a point-in-time view of all route counters, ordered by
// total bytes descending (ties broken by route name). The snapshot is not
// transactionally consistent across routes: increments that race with the
// snapshot may or may not be included, but the returned values are always
// internally valid and the final totals after quiescence are exact.
func (s *Store) Snapshot() []RouteTraffic {
	s.mu.RLock()
	entries := make([]RouteTraffic, 0, len(s.routes))
	for route, rc := range s.routes {
		entries = append(entries, RouteTraffic{
			Route:    route,
			Sent:     rc.sent.Load(),
			Received: rc.received.Load(),
		})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		ti, tj := entries[i].Total(), entries[j].Total()
		if ti != tj {
			return ti > tj
		}
		return entries[i].Route < entries[j].Route
	})
	return entries
}

// MarkShutdown sets the one-shot shutdown flag. The first call closes the
// Done channel; subsequent calls are no-ops.
func (s *Store) MarkShutdown() {
	s.shutdownOnce.Do(func() {
		s.shutdown.Store(true)
		close(s.done)
	})
}

// IsShutdown reports whether shutdown has been requested.
func (s *Store) IsShutdown() bool {
	return s.shutdown.Load()
}

// Done returns a channel that is closed when shutdown is requested. The
// server's shutdown coordinator selects on it alongside OS signals.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

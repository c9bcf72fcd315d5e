package traffic

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_RecordAndSnapshot(t *testing.T) {
	s := NewStore()

	s.RecordSent("/api/query", 100)
	s.RecordReceived("/api/query", 250)
	s.RecordSent("/app/report", 10)

	snap := s.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot() returned %d entries, want 2", len(snap))
	}

	// Ordered by total bytes descending.
	if snap[0].Route != "/api/query" {
		t.Errorf("first snapshot entry = %q, want %q", snap[0].Route, "/api/query")
	}
	if snap[0].Sent != 100 || snap[0].Received != 250 {
		t.Errorf("counters for /api/query = (%d, %d), want (100, 250)", snap[0].Sent, snap[0].Received)
	}

	if got := s.HTTPTotal(); got != 360 {
		t.Errorf("HTTPTotal() = %d, want 360", got)
	}
}

func TestStore_RoutesAreNotNormalized(t *testing.T) {
	s := NewStore()
	s.RecordSent("/a", 1)
	s.RecordSent("/a/", 1)

	if got := len(s.Snapshot()); got != 2 {
		t.Errorf("Snapshot() returned %d entries, want 2 distinct routes", got)
	}
}

func TestStore_ZeroIncrementsCreateNoRoute(t *testing.T) {
	s := NewStore()
	s.RecordSent("/noop", 0)
	s.RecordReceived("/noop", 0)

	if got := len(s.Snapshot()); got != 0 {
		t.Errorf("Snapshot() returned %d entries, want 0", got)
	}
}

func TestStore_ConcurrentIncrementsAreExact(t *testing.T) {
	const (
		routes     = 8
		writers    = 16
		increments = 500
	)

	s := NewStore()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				route := fmt.Sprintf("/route/%d", i%routes)
				s.RecordSent(route, 3)
				s.RecordReceived(route, 5)
				s.RecordWsTraffic(7)
			}
		}(w)
	}

	// Concurrent snapshot readers must not corrupt or crash.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			for _, e := range s.Snapshot() {
				if e.Received < 0 || e.Sent < 0 {
					t.Error("snapshot produced invalid counters")
				}
			}
		}
	}()

	wg.Wait()
	<-done

	wantPerRoute := uint64(writers * increments / routes)
	for _, e := range s.Snapshot() {
		if e.Sent != wantPerRoute*3 {
			t.Errorf("route %s sent = %d, want %d", e.Route, e.Sent, wantPerRoute*3)
		}
		if e.Received != wantPerRoute*5 {
			t.Errorf("route %s received = %d, want %d", e.Route, e.Received, wantPerRoute*5)
		}
	}

	wantHTTP := uint64(writers * increments * (3 + 5))
	if got := s.HTTPTotal(); got != wantHTTP {
		t.Errorf("HTTPTotal() = %d, want %d", got, wantHTTP)
	}
	wantWS := uint64(writers * increments * 7)
	if got := s.WebSocketTotal(); got != wantWS {
		t.Errorf("WebSocketTotal() = %d, want %d", got, wantWS)
	}
}

func TestStore_Restore(t *testing.T) {
	s := NewStore()
	s.Restore("/app/query", 40, 60)
	s.RecordSent("/app/query", 2)

	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].Sent != 42 || snap[0].Received != 60 {
		t.Fatalf("Snapshot() after restore = %+v, want sent=42 received=60", snap)
	}
	if got := s.HTTPTotal(); got != 102 {
		t.Errorf("HTTPTotal() = %d, want 102", got)
	}
}

func TestStore_ShutdownFlagIsOneShot(t *testing.T) {
	s := NewStore()

	if s.IsShutdown() {
		t.Fatal("IsShutdown() = true before MarkShutdown")
	}

	select {
	case <-s.Done():
		t.Fatal("Done() closed before MarkShutdown")
	default:
	}

	// Concurrent MarkShutdown calls must not panic on double close.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.MarkShutdown()
		}()
	}
	wg.Wait()

	if !s.IsShutdown() {
		t.Error("IsShutdown() = false after MarkShutdown")
	}

	select {
	case <-s.Done():
	default:
		t.Error("Done() not closed after MarkShutdown")
	}
}

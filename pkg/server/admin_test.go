package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"outpost-hq/gridfront/pkg/config"
	"outpost-hq/gridfront/pkg/traffic"
)

func newTestServer(t *testing.T) (*Server, *traffic.Store) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Upstream.Host = "backend.local"
	cfg.Routing.SourceData = "/srv/sourcedata"
	cfg.Routing.Help = "/srv/help"
	config.ApplyDefaults(cfg)

	store := traffic.NewStore()
	proxied := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return New(cfg, proxied, store, nil), store
}

func TestAdmin_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.adminHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz status = %d, want 405", rec.Code)
	}
}

func TestAdmin_TrafficSnapshot(t *testing.T) {
	srv, store := newTestServer(t)
	store.RecordSent("/app/query", 300)
	store.RecordReceived("/app/query", 1200)
	store.RecordReceived("/app/static/main.js", 4096)
	store.RecordWsTraffic(512)

	rec := httptest.NewRecorder()
	srv.adminHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/traffic", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /traffic status = %d, want 200", rec.Code)
	}

	var report trafficReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	if report.HTTPTotal != 5596 {
		t.Errorf("HTTPTotal = %d, want 5596", report.HTTPTotal)
	}
	if report.WebSocketTotal != 512 {
		t.Errorf("WebSocketTotal = %d, want 512", report.WebSocketTotal)
	}
	if len(report.Routes) != 2 {
		t.Fatalf("got %d routes, want 2: %+v", len(report.Routes), report.Routes)
	}
	// Snapshot ordering: largest total first.
	if report.Routes[0].Route != "/app/static/main.js" {
		t.Errorf("Routes[0] = %q, want /app/static/main.js", report.Routes[0].Route)
	}
	if report.ShuttingDown {
		t.Error("ShuttingDown = true before any shutdown request")
	}
}

func TestAdmin_ShutdownSetsStoreFlag(t *testing.T) {
	srv, store := newTestServer(t)
	handler := srv.adminHandler()

	// GET must not trigger shutdown.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shutdown", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /shutdown status = %d, want 405", rec.Code)
	}
	if store.IsShutdown() {
		t.Fatal("GET /shutdown set the shutdown flag")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shutdown", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /shutdown status = %d, want 202", rec.Code)
	}
	if !store.IsShutdown() {
		t.Fatal("POST /shutdown did not set the shutdown flag")
	}
	select {
	case <-store.Done():
	default:
		t.Error("Done channel not closed after shutdown request")
	}

	// A second request is a no-op, not a panic.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shutdown", nil))
	if rec.Code != http.StatusAccepted {
		t.Errorf("second POST /shutdown status = %d, want 202", rec.Code)
	}
}

func TestServer_HandlerAppliesMiddleware(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/query", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing; middleware chain not applied")
	}
}

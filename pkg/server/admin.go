package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"outpost-hq/gridfront/pkg/traffic"
)

// trafficReport is the response body of GET /traffic.
type trafficReport struct {
	HTTPTotal      uint64                 `json:"http_total"`
	WebSocketTotal uint64                 `json:"websocket_total"`
	Routes         []traffic.RouteTraffic `json:"routes"`
	ShuttingDown   bool                   `json:"shutting_down"`
	GeneratedAt    time.Time              `json:"generated_at"`
}

// adminHandler builds the admin mux: health, traffic snapshot, shutdown
// control, and (when enabled) the Prometheus exposition.
func (s *Server) adminHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/traffic", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		report := trafficReport{
			HTTPTotal:      s.store.HTTPTotal(),
			WebSocketTotal: s.store.WebSocketTotal(),
			Routes:         s.store.Snapshot(),
			ShuttingDown:   s.store.IsShutdown(),
			GeneratedAt:    time.Now().UTC(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil {
			slog.Warn("failed to encode traffic report", "error", err)
		}
	})

	mux.HandleFunc("/shutdown", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		slog.Info("shutdown requested", "remote_addr", r.RemoteAddr)
		s.store.MarkShutdown()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "shutting down"})
	})

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	return mux
}

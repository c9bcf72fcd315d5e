package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"outpost-hq/gridfront/pkg/traffic"
)

func TestCollector_EmitsStoreCounters(t *testing.T) {
	store := traffic.NewStore()
	store.RecordSent("/app/query", 300)
	store.RecordReceived("/app/query", 1200)
	store.RecordReceived("/app/static/main.js", 4096)
	store.RecordWsTraffic(512)

	registry := prometheus.NewRegistry()
	if err := registry.Register(NewCollector(store, "gridfront")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	byName := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "{" + lp.GetName() + "=" + lp.GetValue() + "}"
			}
			switch {
			case m.GetCounter() != nil:
				byName[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				byName[key] = m.GetGauge().GetValue()
			}
		}
	}

	want := map[string]float64{
		"gridfront_route_bytes_total{route=/app/query}{direction=sent}":               300,
		"gridfront_route_bytes_total{route=/app/query}{direction=received}":           1200,
		"gridfront_route_bytes_total{route=/app/static/main.js}{direction=received}":  4096,
		"gridfront_http_bytes_total":      5596,
		"gridfront_websocket_bytes_total": 512,
		"gridfront_routes":                2,
	}
	for name, value := range want {
		found := false
		for key, got := range byName {
			if normalizeKey(key) == normalizeKey(name) {
				found = true
				if got != value {
					t.Errorf("%s = %v, want %v", name, got, value)
				}
			}
		}
		if !found {
			t.Errorf("metric %s not found; have %v", name, byName)
		}
	}
}

// normalizeKey makes label ordering irrelevant when comparing keys.
func normalizeKey(key string) string {
	base, rest, ok := strings.Cut(key, "{")
	if !ok {
		return key
	}
	labels := strings.Split("{"+rest, "}{")
	for i := range labels {
		labels[i] = strings.Trim(labels[i], "{}")
	}
	sortStrings(labels)
	return base + strings.Join(labels, ",")
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func TestHandler_ServesExposition(t *testing.T) {
	store := traffic.NewStore()
	store.RecordSent("/api", 42)

	handler, err := Handler(store, "gridfront")
	if err != nil {
		t.Fatalf("Handler() error = %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "gridfront_http_bytes_total 42") {
		t.Errorf("exposition missing http total:\n%s", body)
	}
	if !strings.Contains(body, `gridfront_route_bytes_total{direction="sent",route="/api"} 42`) {
		t.Errorf("exposition missing route metric:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Errorf("exposition missing runtime collector output")
	}
}

package traffic

import (
	"context"
	"path/filepath"
	"testing"
)

func TestPersistence_FlushAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic.db")

	store := NewStore()
	store.RecordSent("/app/query", 300)
	store.RecordReceived("/app/query", 1200)
	store.RecordReceived("/app/static/main.js", 4096)
	store.RecordWsTraffic(512)

	p, err := NewPersistence(store, PersistenceConfig{Path: path})
	if err != nil {
		t.Fatalf("NewPersistence() error = %v", err)
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// A fresh store hydrated from the same file sees identical counters.
	restored := NewStore()
	p2, err := NewPersistence(restored, PersistenceConfig{Path: path})
	if err != nil {
		t.Fatalf("NewPersistence() reopen error = %v", err)
	}
	defer p2.Close()

	snapshot := restored.Snapshot()
	if len(snapshot) != 2 {
		t.Fatalf("restored %d routes, want 2: %+v", len(snapshot), snapshot)
	}
	if snapshot[0].Route != "/app/static/main.js" || snapshot[0].Received != 4096 {
		t.Errorf("snapshot[0] = %+v, want /app/static/main.js with 4096 received", snapshot[0])
	}
	if snapshot[1].Route != "/app/query" || snapshot[1].Sent != 300 || snapshot[1].Received != 1200 {
		t.Errorf("snapshot[1] = %+v, want /app/query with 300/1200", snapshot[1])
	}
	if got := restored.HTTPTotal(); got != 300+1200+4096 {
		t.Errorf("HTTPTotal() = %d, want %d", got, 300+1200+4096)
	}
	if got := restored.WebSocketTotal(); got != 512 {
		t.Errorf("WebSocketTotal() = %d, want 512", got)
	}
}

func TestPersistence_FlushOverwritesPreviousValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic.db")

	store := NewStore()
	store.RecordSent("/api", 100)

	p, err := NewPersistence(store, PersistenceConfig{Path: path})
	if err != nil {
		t.Fatalf("NewPersistence() error = %v", err)
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("first Flush() error = %v", err)
	}

	store.RecordSent("/api", 150)
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("second Flush() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	restored := NewStore()
	p2, err := NewPersistence(restored, PersistenceConfig{Path: path})
	if err != nil {
		t.Fatalf("NewPersistence() reopen error = %v", err)
	}
	defer p2.Close()

	snapshot := restored.Snapshot()
	if len(snapshot) != 1 || snapshot[0].Sent != 250 {
		t.Fatalf("snapshot = %+v, want one /api route with 250 sent", snapshot)
	}
}

func TestPersistence_CloseFlushesWithoutExplicitFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic.db")

	store := NewStore()
	store.RecordReceived("/app/report", 777)

	p, err := NewPersistence(store, PersistenceConfig{Path: path})
	if err != nil {
		t.Fatalf("NewPersistence() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	restored := NewStore()
	p2, err := NewPersistence(restored, PersistenceConfig{Path: path})
	if err != nil {
		t.Fatalf("NewPersistence() reopen error = %v", err)
	}
	defer p2.Close()

	snapshot := restored.Snapshot()
	if len(snapshot) != 1 || snapshot[0].Received != 777 {
		t.Fatalf("snapshot = %+v, want one /app/report route with 777 received", snapshot)
	}
}

func TestPersistence_RejectsInvalidSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic.db")

	_, err := NewPersistence(NewStore(), PersistenceConfig{
		Path:          path,
		FlushSchedule: "not a schedule",
	})
	if err == nil {
		t.Fatal("NewPersistence() error = nil, want invalid schedule error")
	}
}

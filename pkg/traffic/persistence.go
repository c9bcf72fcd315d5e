package traffic

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

// wsAggregateKey is the row key for the WebSocket aggregate in the
// aggregates table. The HTTP aggregate is derived from the route rows and
// is not stored separately.
const wsAggregateKey = "websocket_total"

// PersistenceConfig configures counter persistence.
type PersistenceConfig struct {
	// Path is the SQLite database file path. Parent directories are
	// created as needed.
	Path string

	// FlushSchedule is a cron expression for periodic flushes.
	// Default: "@every 1m"
	FlushSchedule string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// Persistence flushes a Store's counters to SQLite on a schedule and
// restores them on startup, so byte accounting survives restarts. Counters
// are monotonic, so each flush simply overwrites the persisted values with
// the current snapshot.
type Persistence struct {
	store  *Store
	db     *sql.DB
	cron   *cron.Cron
	logger *slog.Logger

	upsertRouteStmt *sql.Stmt
	upsertAggStmt   *sql.Stmt

	mu        sync.Mutex
	closeOnce sync.Once
}

// NewPersistence opens (or creates) the database at cfg.Path, restores any
// persisted counters into store, and starts the scheduled flush.
func NewPersistence(store *Store, cfg PersistenceConfig) (*Persistence, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("persistence path cannot be empty")
	}
	if cfg.FlushSchedule == "" {
		cfg.FlushSchedule = "@every 1m"
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	p := &Persistence{
		store:  store,
		db:     db,
		cron:   cron.New(),
		logger: slog.Default().With("component", "traffic.persistence"),
	}

	if err := p.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := p.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	if err := p.restore(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to restore counters: %w", err)
	}

	if _, err := p.cron.AddFunc(cfg.FlushSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Flush(ctx); err != nil {
			p.logger.Warn("scheduled flush failed", "error", err)
		}
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid flush schedule %q: %w", cfg.FlushSchedule, err)
	}
	p.cron.Start()

	return p, nil
}

func (p *Persistence) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS route_traffic (
		route TEXT PRIMARY KEY,
		sent INTEGER NOT NULL,
		received INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS aggregates (
		name TEXT PRIMARY KEY,
		total INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := p.db.Exec(schema)
	return err
}

func (p *Persistence) prepareStatements() error {
	var err error

	p.upsertRouteStmt, err = p.db.Prepare(`
		INSERT INTO route_traffic (route, sent, received, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (route) DO UPDATE SET
			sent = excluded.sent,
			received = excluded.received,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare route upsert: %w", err)
	}

	p.upsertAggStmt, err = p.db.Prepare(`
		INSERT INTO aggregates (name, total, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			total = excluded.total,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare aggregate upsert: %w", err)
	}

	return nil
}

// restore seeds the store from the persisted rows. Must run before any
// traffic flows; Store.Restore adds rather than sets.
func (p *Persistence) restore() error {
	rows, err := p.db.Query(`SELECT route, sent, received FROM route_traffic`)
	if err != nil {
		return fmt.Errorf("failed to query route rows: %w", err)
	}
	defer rows.Close()

	restored := 0
	for rows.Next() {
		var (
			route          string
			sent, received uint64
		)
		if err := rows.Scan(&route, &sent, &received); err != nil {
			return fmt.Errorf("failed to scan route row: %w", err)
		}
		p.store.Restore(route, sent, received)
		restored++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating route rows: %w", err)
	}

	var wsTotal uint64
	err = p.db.QueryRow(`SELECT total FROM aggregates WHERE name = ?`, wsAggregateKey).Scan(&wsTotal)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("failed to load websocket aggregate: %w", err)
	default:
		p.store.RestoreWebSocketTotal(wsTotal)
	}

	if restored > 0 || wsTotal > 0 {
		p.logger.Info("restored traffic counters",
			"routes", restored,
			"websocket_bytes", wsTotal,
		)
	}
	return nil
}

// Flush writes the current snapshot to the database. Safe for concurrent
// callers; flushes are serialized.
func (p *Persistence) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := p.store.Snapshot()
	wsTotal := p.store.WebSocketTotal()
	now := time.Now().Unix()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin flush transaction: %w", err)
	}
	defer tx.Rollback()

	for _, entry := range snapshot {
		if _, err := tx.StmtContext(ctx, p.upsertRouteStmt).ExecContext(ctx,
			entry.Route, entry.Sent, entry.Received, now,
		); err != nil {
			return fmt.Errorf("failed to flush route %q: %w", entry.Route, err)
		}
	}
	if _, err := tx.StmtContext(ctx, p.upsertAggStmt).ExecContext(ctx,
		wsAggregateKey, wsTotal, now,
	); err != nil {
		return fmt.Errorf("failed to flush websocket aggregate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flush: %w", err)
	}
	return nil
}

// Close stops the scheduled flush, performs a final flush, and closes the
// database. Close is idempotent.
func (p *Persistence) Close() error {
	var closeErr error

	p.closeOnce.Do(func() {
		stopCtx := p.cron.Stop()
		<-stopCtx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.Flush(ctx); err != nil {
			p.logger.Warn("final flush failed", "error", err)
		}

		if p.upsertRouteStmt != nil {
			p.upsertRouteStmt.Close()
		}
		if p.upsertAggStmt != nil {
			p.upsertAggStmt.Close()
		}

		_, _ = p.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		closeErr = p.db.Close()
	})

	return closeErr
}

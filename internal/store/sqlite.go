package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"chainscope/internal/errors"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Analysis snapshots: one row per computed result, payload is the
	-- response body served to the caller
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		kind TEXT NOT NULL,
		expiration TEXT,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_kind
		ON snapshots(symbol, kind, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_snapshots_created
		ON snapshots(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveSnapshot persists one analysis result and returns its ID.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, symbol, kind, expiration string, payload interface{}) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encoding snapshot payload: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (symbol, kind, expiration, payload) VALUES (?, ?, ?, ?)`,
		symbol, kind, expiration, string(body))
	if err != nil {
		return 0, fmt.Errorf("%w: inserting snapshot: %v", errors.ErrDatabaseError, err)
	}

	return result.LastInsertId()
}

// GetSnapshots returns snapshots matching the filter, newest first.
func (s *SQLiteStore) GetSnapshots(ctx context.Context, filter SnapshotFilter) ([]Snapshot, error) {
	query := `SELECT id, symbol, kind, COALESCE(expiration, ''), payload, created_at
		FROM snapshots WHERE 1=1`
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, filter.Kind)
	}
	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since)
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying snapshots: %v", errors.ErrDatabaseError, err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		var payload string
		if err := rows.Scan(&snap.ID, &snap.Symbol, &snap.Kind, &snap.Expiration, &payload, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning snapshot: %v", errors.ErrDatabaseError, err)
		}
		snap.Payload = json.RawMessage(payload)
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

// GetLatestSnapshot returns the newest snapshot for a symbol and kind.
func (s *SQLiteStore) GetLatestSnapshot(ctx context.Context, symbol, kind string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, symbol, kind, COALESCE(expiration, ''), payload, created_at
		FROM snapshots WHERE symbol = ? AND kind = ?
		ORDER BY created_at DESC LIMIT 1`,
		symbol, kind)

	var snap Snapshot
	var payload string
	err := row.Scan(&snap.ID, &snap.Symbol, &snap.Kind, &snap.Expiration, &payload, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no %s snapshot for %s", errors.ErrDataNotFound, kind, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying latest snapshot: %v", errors.ErrDatabaseError, err)
	}

	snap.Payload = json.RawMessage(payload)
	return &snap, nil
}

// PruneSnapshots deletes snapshots older than the cutoff.
func (s *SQLiteStore) PruneSnapshots(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE created_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("%w: pruning snapshots: %v", errors.ErrDatabaseError, err)
	}
	return result.RowsAffected()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

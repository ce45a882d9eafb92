// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// Snapshot kinds persisted by the analysis service.
const (
	KindRisk    = "risk"
	KindSummary = "summary"
	KindVehicle = "vehicle"
	KindSpread  = "spread"
)

// Snapshot is one persisted analysis result. The payload is the response
// body as served to the caller, so historical snapshots replay exactly.
type Snapshot struct {
	ID         int64           `json:"id"`
	Symbol     string          `json:"symbol"`
	Kind       string          `json:"kind"`
	Expiration string          `json:"expiration,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Payload    json.RawMessage `json:"payload"`
}

// SnapshotFilter restricts snapshot listing.
type SnapshotFilter struct {
	Symbol string
	Kind   string
	Since  time.Time
	Limit  int
}

// DataStore defines the interface for analysis result persistence.
type DataStore interface {
	// SaveSnapshot persists one analysis result and returns its ID.
	SaveSnapshot(ctx context.Context, symbol, kind, expiration string, payload interface{}) (int64, error)

	// GetSnapshots returns snapshots matching the filter, newest first.
	GetSnapshots(ctx context.Context, filter SnapshotFilter) ([]Snapshot, error)

	// GetLatestSnapshot returns the newest snapshot for a symbol and kind,
	// or an error wrapping ErrDataNotFound when none exists.
	GetLatestSnapshot(ctx context.Context, symbol, kind string) (*Snapshot, error)

	// PruneSnapshots deletes snapshots older than the cutoff and returns
	// the number removed.
	PruneSnapshots(ctx context.Context, before time.Time) (int64, error)

	// Lifecycle
	Close() error
}

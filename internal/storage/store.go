// Package storage archives extraction results. One Store interface is
// implemented by SQLite (local), PostgreSQL (shared), ClickHouse (analytics)
// and MongoDB (document) backends.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoBackend is returned by Open when no archive backend is configured.
var ErrNoBackend = errors.New("no archive backend configured")

// timeLayout keeps text timestamps sortable: fixed-width nanoseconds, UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Record is one archived extraction.
type Record struct {
	ID       uuid.UUID       `json:"id"`
	Source   string          `json:"source"`
	NotamID  string          `json:"notam_id,omitempty"`
	RawText  string          `json:"raw_text"`
	ParsedAt time.Time       `json:"parsed_at"`
	Circles  int             `json:"circles"`
	Polygons int             `json:"polygons"`
	Skipped  int             `json:"skipped"`
	Geohash  string          `json:"geohash,omitempty"` // Geohash of the map center, empty if none.
	Result   json.RawMessage `json:"result"`            // The extractor result as served by the API.
}

// Store is implemented by every archive backend.
type Store interface {
	// Backend names the implementation, for logs and metrics.
	Backend() string
	// Save writes one record.
	Save(ctx context.Context, r *Record) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*Record, error)
	// Close releases the connection.
	Close() error
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteDB archives records in a local SQLite file.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

func (d *SQLiteDB) Backend() string { return "sqlite" }

// Close closes the database connection.
func (d *SQLiteDB) Close() error {
	return d.db.Close()
}

// createSQLiteSchema creates the database tables and indices.
func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS notam_results (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		notam_id TEXT,
		raw_text TEXT NOT NULL,
		parsed_at TEXT NOT NULL,
		circles INTEGER NOT NULL DEFAULT 0,
		polygons INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		geohash TEXT,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notam_results_parsed_at ON notam_results(parsed_at);
	CREATE INDEX IF NOT EXISTS idx_notam_results_geohash ON notam_results(geohash);
	`

	_, err := db.Exec(schema)
	return err
}

// Save inserts a record.
func (d *SQLiteDB) Save(ctx context.Context, r *Record) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO notam_results (id, source, notam_id, raw_text, parsed_at, circles, polygons, skipped, geohash, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID.String(), r.Source, r.NotamID, r.RawText, r.ParsedAt.UTC().Format(timeLayout),
		r.Circles, r.Polygons, r.Skipped, r.Geohash, string(r.Result))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Recent returns the newest records first.
func (d *SQLiteDB) Recent(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, source, COALESCE(notam_id, ''), raw_text, parsed_at, circles, polygons, skipped, COALESCE(geohash, ''), result_json
		FROM notam_results
		ORDER BY parsed_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*Record
	for rows.Next() {
		var (
			r          Record
			id, parsed string
			result     string
		)
		if err := rows.Scan(&id, &r.Source, &r.NotamID, &r.RawText, &parsed,
			&r.Circles, &r.Polygons, &r.Skipped, &r.Geohash, &result); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse record id: %w", err)
		}
		if r.ParsedAt, err = time.Parse(timeLayout, parsed); err != nil {
			return nil, fmt.Errorf("parse record time: %w", err)
		}
		r.Result = []byte(result)
		records = append(records, &r)
	}

	return records, rows.Err()
}

// CountByGeohash returns how many records have a map center in the given
// geohash cell (prefix match).
func (d *SQLiteDB) CountByGeohash(ctx context.Context, prefix string) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notam_results WHERE geohash LIKE ? || '%'`, prefix).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by geohash: %w", err)
	}
	return n, nil
}

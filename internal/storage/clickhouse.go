package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseDB archives records in ClickHouse for analytics.
type ClickHouseDB struct {
	conn driver.Conn
}

// OpenClickHouse opens a connection to ClickHouse.
func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

func (d *ClickHouseDB) Backend() string { return "clickhouse" }

// Close closes the ClickHouse connection.
func (d *ClickHouseDB) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the ClickHouse tables.
func (d *ClickHouseDB) CreateSchema(ctx context.Context) error {
	err := d.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS notam_results (
			id          UUID,
			source      LowCardinality(String),
			notam_id    String,
			raw_text    String,
			parsed_at   DateTime64(3),
			circles     Int32,
			polygons    Int32,
			skipped     Int32,
			geohash     String,
			result_json String
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(parsed_at)
		ORDER BY (parsed_at, id)
		SETTINGS index_granularity = 8192`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save inserts a single record.
func (d *ClickHouseDB) Save(ctx context.Context, r *Record) error {
	return d.SaveBatch(ctx, []*Record{r})
}

// SaveBatch stores multiple records efficiently.
func (d *ClickHouseDB) SaveBatch(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO notam_results (id, source, notam_id, raw_text, parsed_at, circles, polygons, skipped, geohash, result_json)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(r.ID, r.Source, r.NotamID, r.RawText, r.ParsedAt,
			int32(r.Circles), int32(r.Polygons), int32(r.Skipped), r.Geohash, string(r.Result))
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// Recent returns the newest records first.
func (d *ClickHouseDB) Recent(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := d.conn.Query(ctx, `
		SELECT id, source, notam_id, raw_text, parsed_at, circles, polygons, skipped, geohash, result_json
		FROM notam_results
		ORDER BY parsed_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*Record
	for rows.Next() {
		var (
			r                          Record
			circles, polygons, skipped int32
			result                     string
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.NotamID, &r.RawText, &r.ParsedAt,
			&circles, &polygons, &skipped, &r.Geohash, &result); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Circles, r.Polygons, r.Skipped = int(circles), int(polygons), int(skipped)
		r.ParsedAt = r.ParsedAt.UTC()
		r.Result = []byte(result)
		records = append(records, &r)
	}

	return records, rows.Err()
}

// CountByGeohash groups archived map centers by geohash prefix of the given length.
func (d *ClickHouseDB) CountByGeohash(ctx context.Context, precision int) (map[string]uint64, error) {
	rows, err := d.conn.Query(ctx, `
		SELECT substring(geohash, 1, ?) AS cell, count()
		FROM notam_results
		WHERE geohash != ''
		GROUP BY cell
	`, precision)
	if err != nil {
		return nil, fmt.Errorf("count by geohash: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]uint64)
	for rows.Next() {
		var cell string
		var n uint64
		if err := rows.Scan(&cell, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[cell] = n
	}
	return counts, rows.Err()
}

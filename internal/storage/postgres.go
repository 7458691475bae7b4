package storage

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB archives records in a shared PostgreSQL database.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// OpenPostgres opens a connection pool to PostgreSQL.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	poolCfg, err := pgxpool.ParseConfig(postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// postgresDSN builds a connection URL with the credentials escaped.
func postgresDSN(cfg PostgresConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (d *PostgresDB) Backend() string { return "postgres" }

// Close closes the PostgreSQL connection pool.
func (d *PostgresDB) Close() error {
	d.pool.Close()
	return nil
}

// CreateSchema creates the PostgreSQL tables.
func (d *PostgresDB) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS notam_results (
		id          UUID PRIMARY KEY,
		source      TEXT NOT NULL,
		notam_id    TEXT,
		raw_text    TEXT NOT NULL,
		parsed_at   TIMESTAMPTZ NOT NULL,
		circles     INTEGER NOT NULL DEFAULT 0,
		polygons    INTEGER NOT NULL DEFAULT 0,
		skipped     INTEGER NOT NULL DEFAULT 0,
		geohash     TEXT,
		result      JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notam_results_parsed_at ON notam_results(parsed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_notam_results_geohash ON notam_results(geohash text_pattern_ops);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save inserts a record.
func (d *PostgresDB) Save(ctx context.Context, r *Record) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO notam_results (id, source, notam_id, raw_text, parsed_at, circles, polygons, skipped, geohash, result)
		VALUES ($1::uuid, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, NULLIF($9, ''), $10::jsonb)
	`, r.ID.String(), r.Source, r.NotamID, r.RawText, r.ParsedAt, r.Circles, r.Polygons, r.Skipped, r.Geohash, string(r.Result))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Recent returns the newest records first.
func (d *PostgresDB) Recent(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id::text, source, COALESCE(notam_id, ''), raw_text, parsed_at, circles, polygons, skipped,
		       COALESCE(geohash, ''), result::text
		FROM notam_results
		ORDER BY parsed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			r          Record
			id, result string
		)
		if err := rows.Scan(&id, &r.Source, &r.NotamID, &r.RawText, &r.ParsedAt,
			&r.Circles, &r.Polygons, &r.Skipped, &r.Geohash, &result); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse record id: %w", err)
		}
		r.ParsedAt = r.ParsedAt.UTC()
		r.Result = []byte(result)
		records = append(records, &r)
	}

	return records, rows.Err()
}

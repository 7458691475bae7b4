package storage

import (
	"context"
	"fmt"
	"strings"
)

// Config selects and configures one archive backend.
type Config struct {
	Backend    string // sqlite, postgres, clickhouse, mongo; empty disables archiving.
	SQLitePath string
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Mongo      MongoConfig
}

// DefaultConfig returns a configuration with default local development settings.
func DefaultConfig() Config {
	return Config{
		SQLitePath: "notams.db",
		ClickHouse: ClickHouseConfig{
			Host:     "localhost",
			Port:     9000,
			Database: "notams",
			User:     "default",
			Password: "",
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "notams",
			User:     "notam",
			Password: "notam",
		},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "NOTAMS",
			Collection: "shapes",
		},
	}
}

// Open connects to the configured backend and makes sure its schema exists.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "":
		return nil, ErrNoBackend
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	case "postgres":
		pg, err := OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if err := pg.CreateSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		return pg, nil
	case "clickhouse":
		ch, err := OpenClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		if err := ch.CreateSchema(ctx); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return ch, nil
	case "mongo":
		m, err := OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}

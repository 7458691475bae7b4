package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"notam_mapper/internal/observability"
	"notam_mapper/internal/storage"
)

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// logFlags are shared by every subcommand.
type logFlags struct {
	level  *string
	format *string
}

func addLogFlags(fs *flag.FlagSet) logFlags {
	return logFlags{
		level:  fs.String("log-level", envOrDefault("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)"),
		format: fs.String("log-format", envOrDefault("LOG_FORMAT", "text"), "Log format (text or json)"),
	}
}

func (l logFlags) logger() zerolog.Logger {
	return observability.NewLogger(*l.level, *l.format)
}

// archiveFlags select the optional archive backend.
type archiveFlags struct {
	backend *string
	cfg     storage.Config
}

func addArchiveFlags(fs *flag.FlagSet) *archiveFlags {
	def := storage.DefaultConfig()
	a := &archiveFlags{}

	a.backend = fs.String("archive", envOrDefault("ARCHIVE_BACKEND", ""), "Archive backend (sqlite, postgres, clickhouse, mongo; empty disables)")
	fs.StringVar(&a.cfg.SQLitePath, "sqlite", envOrDefault("SQLITE_PATH", ""), "SQLite archive path (implies -archive sqlite)")

	// PostgreSQL connection flags.
	fs.StringVar(&a.cfg.Postgres.Host, "pg-host", envOrDefault("POSTGRES_HOST", def.Postgres.Host), "PostgreSQL host")
	fs.IntVar(&a.cfg.Postgres.Port, "pg-port", envOrDefaultInt("POSTGRES_PORT", def.Postgres.Port), "PostgreSQL port")
	fs.StringVar(&a.cfg.Postgres.User, "pg-user", envOrDefault("POSTGRES_USER", def.Postgres.User), "PostgreSQL user")
	fs.StringVar(&a.cfg.Postgres.Password, "pg-password", envOrDefault("POSTGRES_PASSWORD", def.Postgres.Password), "PostgreSQL password")
	fs.StringVar(&a.cfg.Postgres.Database, "pg-database", envOrDefault("POSTGRES_DATABASE", def.Postgres.Database), "PostgreSQL database")

	// ClickHouse connection flags.
	fs.StringVar(&a.cfg.ClickHouse.Host, "ch-host", envOrDefault("CLICKHOUSE_HOST", def.ClickHouse.Host), "ClickHouse host")
	fs.IntVar(&a.cfg.ClickHouse.Port, "ch-port", envOrDefaultInt("CLICKHOUSE_PORT", def.ClickHouse.Port), "ClickHouse native port")
	fs.StringVar(&a.cfg.ClickHouse.User, "ch-user", envOrDefault("CLICKHOUSE_USER", def.ClickHouse.User), "ClickHouse user")
	fs.StringVar(&a.cfg.ClickHouse.Password, "ch-password", envOrDefault("CLICKHOUSE_PASSWORD", def.ClickHouse.Password), "ClickHouse password")
	fs.StringVar(&a.cfg.ClickHouse.Database, "ch-database", envOrDefault("CLICKHOUSE_DATABASE", def.ClickHouse.Database), "ClickHouse database")

	// MongoDB connection flags.
	fs.StringVar(&a.cfg.Mongo.URI, "mongo-uri", envOrDefault("MONGO_URI", def.Mongo.URI), "MongoDB URI")
	fs.StringVar(&a.cfg.Mongo.Database, "mongo-database", envOrDefault("MONGO_DATABASE", def.Mongo.Database), "MongoDB database")
	a.cfg.Mongo.Collection = def.Mongo.Collection

	return a
}

// config resolves the backend: -sqlite alone selects sqlite.
func (a *archiveFlags) config() storage.Config {
	cfg := a.cfg
	cfg.Backend = strings.ToLower(strings.TrimSpace(*a.backend))
	if cfg.Backend == "" && cfg.SQLitePath != "" {
		cfg.Backend = "sqlite"
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		cfg.SQLitePath = storage.DefaultConfig().SQLitePath
	}
	return cfg
}

// open returns nil, nil when archiving is disabled.
func (a *archiveFlags) open(ctx context.Context, log zerolog.Logger, metrics *observability.Metrics) (*storage.Archiver, error) {
	store, err := storage.Open(ctx, a.config())
	if errors.Is(err, storage.ErrNoBackend) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return storage.NewArchiver(store, clockwork.NewRealClock(), log, metrics), nil
}

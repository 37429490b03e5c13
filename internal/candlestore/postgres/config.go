// Package postgres is an optional durable backing store for candlestore
// (§6): a jmoiron/sqlx + lib/pq repository implementing the
// candlestore.Persistence interface, adapted from the teacher's
// internal/infrastructure/db connection manager and
// internal/persistence/postgres trades repository.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Config holds connection settings for the candle database.
type Config struct {
	DSN             string        `yaml:"dsn" env:"GMOFX_PG_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"GMOFX_PG_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"GMOFX_PG_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"GMOFX_PG_CONN_MAX_LIFETIME"`
	QueryTimeout    time.Duration `yaml:"query_timeout" env:"GMOFX_PG_QUERY_TIMEOUT"`
	Enabled         bool          `yaml:"enabled" env:"GMOFX_PG_ENABLED"`
}

// DefaultConfig mirrors the conservative pool sizing a single-broker
// gateway process needs — persistence is read at startup to hydrate the
// in-memory rings, not the hot read path.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    5 * time.Second,
		Enabled:         false,
	}
}

// Open connects to Postgres and verifies connectivity. Callers should
// Close the returned DB on shutdown.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: DSN is required when candle persistence is enabled")
	}
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return db, nil
}

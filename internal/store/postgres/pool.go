package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const applicationName = "orgstore"

// Pool roles.
const (
	RolePrimary = "primary"
	RoleReplica = "replica"
)

// PoolConfig tunes one pgx connection pool. Durations are whole seconds so the
// values map straight onto CLI flags.
type PoolConfig struct {
	// ConnString is a postgres:// URL or key=value DSN.
	ConnString string

	MaxConns int32 // default 20
	MinConns int32 // default 2

	MaxConnLifetime int32 // default 3600
	MaxConnIdleTime int32 // default 1800
	ConnectTimeout  int32 // default 10
}

// Validate rejects a pool config that cannot be dialled.
func (c *PoolConfig) Validate() error {
	switch {
	case c.ConnString == "":
		return fmt.Errorf("connection string is required")
	case c.MinConns > c.MaxConns:
		return fmt.Errorf("min conns (%d) exceeds max conns (%d)", c.MinConns, c.MaxConns)
	}
	return nil
}

// ApplyDefaults fills in zero values.
func (c *PoolConfig) ApplyDefaults() {
	c.MaxConns = orDefault(c.MaxConns, 20)
	c.MinConns = orDefault(c.MinConns, 2)
	c.MaxConnLifetime = orDefault(c.MaxConnLifetime, 3600)
	c.MaxConnIdleTime = orDefault(c.MaxConnIdleTime, 1800)
	c.ConnectTimeout = orDefault(c.ConnectTimeout, 10)
}

func orDefault(v, def int32) int32 {
	if v == 0 {
		return def
	}
	return v
}

// NewPool opens a pool for role and pings it. Sessions report themselves as
// orgstore-<role> in pg_stat_activity, and replica sessions are read-only.
func NewPool(ctx context.Context, role string, cfg *PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := buildPoolConfig(role, cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s pool: %w", role, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", role, err)
	}

	log.Info().
		Str("role", role).
		Str("application_name", poolConfig.ConnConfig.RuntimeParams["application_name"]).
		Str("host", poolConfig.ConnConfig.Host).
		Str("database", poolConfig.ConnConfig.Database).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("Connected to PostgreSQL")

	return pool, nil
}

func buildPoolConfig(role string, cfg *PoolConfig) (*pgxpool.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%s pool config is required", role)
	}
	if role != RolePrimary && role != RoleReplica {
		return nil, fmt.Errorf("unknown pool role %q", role)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s pool config: %w", role, err)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s connection string: %w", role, err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = seconds(cfg.MaxConnLifetime)
	poolConfig.MaxConnIdleTime = seconds(cfg.MaxConnIdleTime)
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.ConnectTimeout = seconds(cfg.ConnectTimeout)

	params := poolConfig.ConnConfig.RuntimeParams
	params["application_name"] = applicationName + "-" + role
	if role == RoleReplica {
		params["default_transaction_read_only"] = "on"
	}

	return poolConfig, nil
}

func seconds(n int32) time.Duration {
	return time.Duration(n) * time.Second
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgstore/internal/logger"
	"github.com/wolfeidau/orgstore/internal/repository"
	"github.com/wolfeidau/orgstore/internal/store"
	memorystore "github.com/wolfeidau/orgstore/internal/store/memory"
	postgresstore "github.com/wolfeidau/orgstore/internal/store/postgres"
	"github.com/wolfeidau/orgstore/internal/telemetry"
)

type Globals struct {
	Debug   bool
	Tracing bool
	Version string
}

// StoreFlags selects and configures the backing store.
type StoreFlags struct {
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"ORGSTORE_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`

	ReadAttempts      uint          `help:"replica reads made while waiting for a minimum version" default:"20" env:"ORGSTORE_READ_ATTEMPTS"`
	ReadRetryInterval time.Duration `help:"delay between replica reads" default:"25ms" env:"ORGSTORE_READ_RETRY_INTERVAL"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString        string `help:"PostgreSQL primary connection string" env:"ORGSTORE_POSTGRES_CONNECTION_STRING"`
	ReplicaConnString string `help:"PostgreSQL read replica connection string, defaults to the primary" env:"ORGSTORE_POSTGRES_REPLICA_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"ORGSTORE_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or ORGSTORE_POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (s *PostgresStoreFlags) storeConfig() *postgresstore.StoreConfig {
	return &postgresstore.StoreConfig{
		Primary: postgresstore.PoolConfig{
			ConnString:      s.ConnString,
			MaxConns:        s.MaxConns,
			MinConns:        s.MinConns,
			MaxConnLifetime: s.MaxConnLifetime,
			MaxConnIdleTime: s.MaxConnIdleTime,
		},
		ReplicaConnString: s.ReplicaConnString,
		AutoMigrate:       s.AutoMigrate,
	}
}

// openRepository builds the selected store and a repository over it. The
// returned close function stops the store.
func (s *StoreFlags) openRepository(ctx context.Context) (*repository.Repository, func(), error) {
	var (
		st      store.ReplicatedStore
		closeFn func()
		cfg     = repository.Config{
			MaxReadAttempts:   s.ReadAttempts,
			ReadRetryInterval: s.ReadRetryInterval,
		}
	)

	switch s.StoreType {
	case "postgres":
		if err := s.PostgresStore.validate(); err != nil {
			return nil, nil, err
		}

		pgStore, err := postgresstore.NewDocumentStore(ctx, s.PostgresStore.storeConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create postgres store: %w", err)
		}
		st, closeFn = pgStore, pgStore.Close

	default:
		memStore := memorystore.NewDocumentStore(memorystore.Config{})
		if err := memStore.Start(); err != nil {
			return nil, nil, fmt.Errorf("failed to start memory store: %w", err)
		}
		st = memStore
		closeFn = func() {
			if err := memStore.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop memory store")
			}
		}
		cfg = repository.InMemoryConfig()
	}

	repo, err := repository.New(st, cfg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	log.Debug().Str("store_type", s.StoreType).Msg("Opened repository")

	return repo, closeFn, nil
}

// setup configures logging and, when enabled, telemetry. The returned function
// flushes telemetry.
func setup(ctx context.Context, globals *Globals) func() {
	logger.Setup(globals.Debug)

	if !globals.Tracing {
		return func() {}
	}

	shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
		ServiceName:    "orgctl",
		ServiceVersion: globals.Version,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}

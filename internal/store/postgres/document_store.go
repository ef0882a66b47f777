package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgstore/internal/models"
	"github.com/wolfeidau/orgstore/internal/store"
)

var _ store.ReplicatedStore = (*DocumentStore)(nil)

// DocumentStore implements store.ReplicatedStore on PostgreSQL. Each organisation
// is one JSONB document next to a version column; updates are a compare-and-swap
// on that column. Reads through Replica go to the replica pool when one is
// configured and may lag behind the primary.
type DocumentStore struct {
	primary *pgxpool.Pool
	replica *pgxpool.Pool
	cfg     *StoreConfig
}

// NewDocumentStore connects the primary (and replica) pools and optionally runs
// migrations.
func NewDocumentStore(ctx context.Context, cfg *StoreConfig) (*DocumentStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	primary, err := NewPool(ctx, RolePrimary, &cfg.Primary)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(ctx, primary); err != nil {
			primary.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	replica := primary
	if cfg.ReplicaConnString != "" {
		replica, err = NewPool(ctx, RoleReplica, cfg.replicaPoolConfig())
		if err != nil {
			primary.Close()
			return nil, err
		}
	}

	return &DocumentStore{
		primary: primary,
		replica: replica,
		cfg:     cfg,
	}, nil
}

// Close releases both pools.
func (s *DocumentStore) Close() {
	if s.replica != s.primary {
		s.replica.Close()
	}
	s.primary.Close()
}

// Pool exposes the primary pool.
func (s *DocumentStore) Pool() *pgxpool.Pool {
	return s.primary
}

func (s *DocumentStore) Primary() store.DocumentStore {
	return &collection{pool: s.primary, timeout: s.queryTimeout()}
}

func (s *DocumentStore) Replica() store.DocumentReader {
	return &collection{pool: s.replica, timeout: s.queryTimeout()}
}

func (s *DocumentStore) queryTimeout() time.Duration {
	return time.Duration(s.cfg.QueryTimeoutSeconds) * time.Second
}

type collection struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func (c *collection) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// FindOne retrieves an organisation document by ID.
func (c *collection) FindOne(ctx context.Context, id string) (*models.Organisation, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var raw []byte
	err := c.pool.QueryRow(ctx, `SELECT document FROM organisations WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	return decodeDocument(raw)
}

// FindAll returns every organisation document ordered by ID.
func (c *collection) FindAll(ctx context.Context) ([]*models.Organisation, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx, `SELECT document FROM organisations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organisations: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var orgs []*models.Organisation
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan organisation: %w", err)
		}

		org, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organisations: %w", err)
	}

	return orgs, nil
}

// InsertOne stores a new document. The primary key makes it insert-if-absent.
func (c *collection) InsertOne(ctx context.Context, org *models.Organisation) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	raw, err := json.Marshal(org)
	if err != nil {
		return fmt.Errorf("failed to marshal organisation: %w", err)
	}

	_, err = c.pool.Exec(ctx, `
		INSERT INTO organisations (id, version, document)
		VALUES ($1, $2, $3)
	`, org.ID, org.Version, raw)
	if err != nil {
		return mapPostgresError(err)
	}

	log.Debug().
		Str("org_id", org.ID).
		Int("version", org.Version).
		Msg("Inserted organisation document")

	return nil
}

// UpdateOne replaces the document only while its version still matches.
func (c *collection) UpdateOne(ctx context.Context, filter store.VersionFilter, org *models.Organisation) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	raw, err := json.Marshal(org)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal organisation: %w", err)
	}

	result, err := c.pool.Exec(ctx, `
		UPDATE organisations SET
			version = $3,
			document = $4,
			updated_at = now()
		WHERE id = $1 AND version = $2
	`, filter.ID, filter.Version, org.Version, raw)
	if err != nil {
		return 0, mapPostgresError(err)
	}

	log.Debug().
		Str("org_id", filter.ID).
		Int("expected_version", filter.Version).
		Int64("matched", result.RowsAffected()).
		Msg("Updated organisation document")

	return result.RowsAffected(), nil
}

func decodeDocument(raw []byte) (*models.Organisation, error) {
	var org models.Organisation
	if err := json.Unmarshal(raw, &org); err != nil {
		return nil, fmt.Errorf("failed to decode organisation document: %w", err)
	}
	return &org, nil
}

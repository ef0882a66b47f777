package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	postgresstore "github.com/wolfeidau/orgstore/internal/store/postgres"
)

type MigrateCmd struct {
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	defer setup(ctx, globals)()

	if err := m.PostgresStore.validate(); err != nil {
		return err
	}

	pool, err := postgresstore.NewPool(ctx, postgresstore.RolePrimary, &m.PostgresStore.storeConfig().Primary)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer pool.Close()

	if err := postgresstore.Migrate(ctx, pool); err != nil {
		return err
	}

	log.Info().Msg("Database is up to date")
	return nil
}

//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/orgstore/internal/models"
	"github.com/wolfeidau/orgstore/internal/repository"
	"github.com/wolfeidau/orgstore/internal/store"
	"github.com/wolfeidau/orgstore/internal/testutil"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*DocumentStore, func()) {
	// Start postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	// Create store with auto-migrate enabled
	cfg := &StoreConfig{
		Primary:     PoolConfig{ConnString: connString},
		AutoMigrate: true,
	}

	st, err := NewDocumentStore(ctx, cfg)
	require.NoError(t, err)

	cleanup := func() {
		st.Close()
		_ = container.Terminate(ctx)
	}

	return st, cleanup
}

func TestIntegration_DocumentStore(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	t.Run("insert and find", func(t *testing.T) {
		org := testutil.WithHistory(testutil.Organisation("org-insert"))
		org.Version = 1

		require.NoError(t, st.Primary().InsertOne(ctx, org))

		found, err := st.Replica().FindOne(ctx, "org-insert")
		require.NoError(t, err)
		require.Equal(t, org, found)
	})

	t.Run("duplicate insert", func(t *testing.T) {
		org := testutil.Organisation("org-dup")
		org.Version = 1

		require.NoError(t, st.Primary().InsertOne(ctx, org))
		require.ErrorIs(t, st.Primary().InsertOne(ctx, org), store.ErrOrganisationAlreadyExists)
	})

	t.Run("compare and swap", func(t *testing.T) {
		org := testutil.Organisation("org-cas")
		org.Version = 1
		require.NoError(t, st.Primary().InsertOne(ctx, org))

		next := *org
		next.Version = 2
		next.OrgID = 77

		matched, err := st.Primary().UpdateOne(ctx, store.VersionFilter{ID: "org-cas", Version: 1}, &next)
		require.NoError(t, err)
		require.Equal(t, int64(1), matched)

		matched, err = st.Primary().UpdateOne(ctx, store.VersionFilter{ID: "org-cas", Version: 1}, &next)
		require.NoError(t, err)
		require.Zero(t, matched)

		found, err := st.Primary().FindOne(ctx, "org-cas")
		require.NoError(t, err)
		require.Equal(t, 2, found.Version)
		require.Equal(t, 77, found.OrgID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := st.Primary().FindOne(ctx, "missing")
		require.ErrorIs(t, err, store.ErrOrganisationNotFound)
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, Migrate(ctx, st.Pool()))
	})
}

func TestIntegration_Repository(t *testing.T) {
	ctx := context.Background()
	st, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	repo, err := repository.New(st, repository.Config{})
	require.NoError(t, err)

	org := testutil.Organisation("org-1")
	org.Registrations = []models.Registration{testutil.Registration("reg-1", models.MaterialPaper, "AB12 3CD")}

	created, err := repo.Insert(ctx, org)
	require.NoError(t, err)
	require.Equal(t, 1, created.Version)

	updated, err := repo.UpdateMerge(ctx, "org-1", 1, &models.OrganisationUpdate{
		Registrations: []models.Registration{
			testutil.ApproveRegistration(testutil.Registration("reg-1", models.MaterialPaper, "AB12 3CD"), "R1"),
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, updated.Version)

	_, err = repo.UpdateMerge(ctx, "org-1", 1, &models.OrganisationUpdate{OrgID: 9})
	require.ErrorIs(t, err, repository.ErrConflict)

	found, err := repo.FindByID(ctx, "org-1", 2)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, found.Registrations[0].Status)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

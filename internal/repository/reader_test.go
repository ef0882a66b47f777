package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgstore/internal/models"
	"github.com/wolfeidau/orgstore/internal/store/memory"
	"github.com/wolfeidau/orgstore/internal/testutil"
)

func TestRepository_FindByID(t *testing.T) {
	ctx := context.Background()

	t.Run("waits for the replica to reach the minimum version", func(t *testing.T) {
		repo, _ := newRepository(t, memory.Config{ReplicationLag: 30 * time.Millisecond})

		_, err := repo.Insert(ctx, testutil.Organisation("org-1"))
		require.NoError(t, err)

		_, err = repo.UpdateMerge(ctx, "org-1", 1, &models.OrganisationUpdate{OrgID: 42})
		require.NoError(t, err)

		org, err := repo.FindByID(ctx, "org-1", 2)
		require.NoError(t, err)
		require.Equal(t, 2, org.Version)
		require.Equal(t, 42, org.OrgID)
	})

	t.Run("without a minimum version the read may be stale", func(t *testing.T) {
		repo, _ := newRepository(t, memory.Config{ReplicationLag: time.Hour})

		_, err := repo.Insert(ctx, testutil.Organisation("org-1"))
		require.NoError(t, err)

		_, err = repo.UpdateMerge(ctx, "org-1", 1, &models.OrganisationUpdate{OrgID: 42})
		require.NoError(t, err)

		org, err := repo.FindByID(ctx, "org-1", 0)
		require.NoError(t, err)
		require.Equal(t, 1, org.Version)
	})

	t.Run("replica that never catches up times out", func(t *testing.T) {
		repo, _ := newRepository(t, memory.Config{ReplicationLag: time.Hour})

		_, err := repo.Insert(ctx, testutil.Organisation("org-1"))
		require.NoError(t, err)

		_, err = repo.UpdateMerge(ctx, "org-1", 1, &models.OrganisationUpdate{OrgID: 42})
		require.NoError(t, err)

		_, err = repo.FindByID(ctx, "org-1", 2)
		require.ErrorIs(t, err, ErrConsistencyTimeout)
		require.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("absent organisation is not found after retries", func(t *testing.T) {
		repo, _ := newRepository(t, memory.Config{})

		started := time.Now()
		_, err := repo.FindByID(ctx, "missing", 1)
		require.ErrorIs(t, err, ErrNotFound)
		require.GreaterOrEqual(t, time.Since(started), 9*InMemoryConfig().ReadRetryInterval)
	})

	t.Run("absent organisation without a minimum version", func(t *testing.T) {
		repo, _ := newRepository(t, memory.Config{})

		_, err := repo.FindByID(ctx, "missing", 0)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("sync replica makes the latest version visible", func(t *testing.T) {
		repo, st := newRepository(t, memory.Config{ReplicationLag: time.Hour})

		_, err := repo.Insert(ctx, testutil.Organisation("org-1"))
		require.NoError(t, err)
		_, err = repo.UpdateMerge(ctx, "org-1", 1, &models.OrganisationUpdate{OrgID: 42})
		require.NoError(t, err)

		st.SyncReplica()

		org, err := repo.FindByID(ctx, "org-1", 2)
		require.NoError(t, err)
		require.Equal(t, 2, org.Version)
	})
}

func TestRepository_FindNested(t *testing.T) {
	ctx := context.Background()

	repo, _ := newRepository(t, memory.Config{ReplicationLag: 20 * time.Millisecond})

	org := testutil.Organisation("org-1")
	org.Accreditations = []models.Accreditation{testutil.Accreditation("acc-1", models.MaterialPaper, "AB12 3CD")}
	_, err := repo.Insert(ctx, org)
	require.NoError(t, err)

	_, err = repo.UpdateMerge(ctx, "org-1", 1, &models.OrganisationUpdate{Registrations: []models.Registration{
		testutil.Registration("reg-1", models.MaterialPaper, "AB12 3CD"),
	}})
	require.NoError(t, err)

	t.Run("registration added at version 2", func(t *testing.T) {
		reg, err := repo.FindRegistrationByID(ctx, "org-1", "reg-1", 2)
		require.NoError(t, err)
		require.Equal(t, "reg-1", reg.ID)
		require.Equal(t, models.StatusCreated, reg.Status)
	})

	t.Run("accreditation", func(t *testing.T) {
		acc, err := repo.FindAccreditationByID(ctx, "org-1", "acc-1", 0)
		require.NoError(t, err)
		require.Equal(t, "acc-1", acc.ID)
	})

	t.Run("unknown nested id", func(t *testing.T) {
		_, err := repo.FindRegistrationByID(ctx, "org-1", "reg-404", 2)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown organisation", func(t *testing.T) {
		_, err := repo.FindAccreditationByID(ctx, "org-404", "acc-1", 0)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepository_FindNestedStaleReplica(t *testing.T) {
	ctx := context.Background()

	repo, _ := newRepository(t, memory.Config{ReplicationLag: time.Hour})

	_, err := repo.Insert(ctx, organisationWithRegistrations("org-1", testutil.Registration("reg-1", models.MaterialPaper, "AB12 3CD")))
	require.NoError(t, err)

	_, err = repo.UpdateMerge(ctx, "org-1", 1, &models.OrganisationUpdate{
		Accreditations: []models.Accreditation{testutil.Accreditation("acc-1", models.MaterialPaper, "AB12 3CD")},
	})
	require.NoError(t, err)

	t.Run("registration below the minimum version", func(t *testing.T) {
		_, err := repo.FindRegistrationByID(ctx, "org-1", "reg-1", 2)
		require.ErrorIs(t, err, ErrConsistencyTimeout)
		require.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("accreditation below the minimum version", func(t *testing.T) {
		_, err := repo.FindAccreditationByID(ctx, "org-1", "acc-1", 2)
		require.ErrorIs(t, err, ErrConsistencyTimeout)
	})

	t.Run("stale read without a minimum version", func(t *testing.T) {
		_, err := repo.FindAccreditationByID(ctx, "org-1", "acc-1", 0)
		require.ErrorIs(t, err, ErrNotFound)

		reg, err := repo.FindRegistrationByID(ctx, "org-1", "reg-1", 0)
		require.NoError(t, err)
		require.Equal(t, "reg-1", reg.ID)
	})
}

func TestRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepository(t, memory.Config{})

	for _, id := range []string{"org-b", "org-a"} {
		_, err := repo.Insert(ctx, testutil.Organisation(id))
		require.NoError(t, err)
	}

	orgs, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	require.Equal(t, "org-a", orgs[0].ID)
}

func TestConfig(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	require.Equal(t, uint(20), cfg.MaxReadAttempts)
	require.Equal(t, 25*time.Millisecond, cfg.ReadRetryInterval)
	require.NoError(t, cfg.Validate())

	mem := InMemoryConfig()
	require.Equal(t, uint(10), mem.MaxReadAttempts)
	require.Equal(t, 10*time.Millisecond, mem.ReadRetryInterval)
}

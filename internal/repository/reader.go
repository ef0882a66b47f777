package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgstore/internal/models"
	"github.com/wolfeidau/orgstore/internal/store"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// errStale marks a replica read that found the organisation below the
// requested version.
var errStale = errors.New("replica behind requested version")

// FindByID reads an organisation from the replica.
//
// With minimumVersion 0 it makes a single read and may return a stale version.
// Otherwise it polls the replica at a fixed interval until the organisation is
// at or beyond minimumVersion. When the attempts run out it returns ErrNotFound
// if the organisation was never seen and ErrConsistencyTimeout if it was seen
// but only at older versions.
func (r *Repository) FindByID(ctx context.Context, id string, minimumVersion int) (*models.Organisation, error) {
	ctx, span := r.tracer.Start(ctx, "repository.find_by_id",
		trace.WithAttributes(
			attribute.String("org.id", id),
			attribute.Int("org.minimum_version", minimumVersion),
		))
	defer span.End()

	org, err := r.findByID(ctx, id, minimumVersion)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
	}
	return org, err
}

func (r *Repository) findByID(ctx context.Context, id string, minimumVersion int) (*models.Organisation, error) {
	replica := r.store.Replica()

	if minimumVersion <= 0 {
		org, err := replica.FindOne(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, id)
		}
		return org, nil
	}

	attempts := 0
	operation := func() (*models.Organisation, error) {
		attempts++

		org, err := replica.FindOne(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrOrganisationNotFound) {
				// May still be propagating.
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}

		if org.Version < minimumVersion {
			return nil, fmt.Errorf("%w: %s at version %d", errStale, id, org.Version)
		}

		return org, nil
	}

	org, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.cfg.ReadRetryInterval)),
		backoff.WithMaxTries(r.cfg.MaxReadAttempts),
	)

	r.metrics.ReadAttempts.Record(ctx, int64(attempts))

	switch {
	case err == nil:
		if attempts > 1 {
			log.Debug().
				Str("org_id", id).
				Int("version", org.Version).
				Int("attempt", attempts).
				Msg("Replica caught up")
		}
		return org, nil

	case errors.Is(err, errStale):
		r.metrics.ConsistencyTimeoutsTotal.Add(ctx, 1)
		log.Warn().
			Str("org_id", id).
			Int("minimum_version", minimumVersion).
			Int("attempt", attempts).
			Msg("Replica never reached requested version")
		return nil, fmt.Errorf("%w: %s version %d after %d reads", ErrConsistencyTimeout, id, minimumVersion, attempts)

	default:
		return nil, notFoundOr(err, id)
	}
}

// FindRegistrationByID reads the organisation with the same polling contract as
// FindByID and returns one of its registrations.
func (r *Repository) FindRegistrationByID(ctx context.Context, orgID, registrationID string, minimumOrgVersion int) (*models.Registration, error) {
	org, err := r.FindByID(ctx, orgID, minimumOrgVersion)
	if err != nil {
		return nil, err
	}

	return findNested(org.Registrations, registrationID)
}

// FindAccreditationByID reads the organisation with the same polling contract
// as FindByID and returns one of its accreditations.
func (r *Repository) FindAccreditationByID(ctx context.Context, orgID, accreditationID string, minimumOrgVersion int) (*models.Accreditation, error) {
	org, err := r.FindByID(ctx, orgID, minimumOrgVersion)
	if err != nil {
		return nil, err
	}

	return findNested(org.Accreditations, accreditationID)
}

// FindAll lists every organisation visible on the replica, ordered by id.
func (r *Repository) FindAll(ctx context.Context) ([]*models.Organisation, error) {
	orgs, err := r.store.Replica().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organisations: %w", err)
	}
	return orgs, nil
}

func findNested[T interface{ EntityID() string }](items []T, id string) (*T, error) {
	for i := range items {
		if items[i].EntityID() == id {
			return &items[i], nil
		}
	}
	return nil, fmt.Errorf("%w: nested item %s", ErrNotFound, id)
}

func notFoundOr(err error, id string) error {
	if errors.Is(err, store.ErrOrganisationNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fmt.Errorf("failed to read organisation %s: %w", id, err)
}

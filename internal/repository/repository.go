// Package repository is the aggregate repository for organisations. Writes go to
// the primary store under optimistic concurrency; reads go to the replica and
// can wait for a minimum version to become visible.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgstore/internal/models"
	"github.com/wolfeidau/orgstore/internal/organisation"
	"github.com/wolfeidau/orgstore/internal/store"
	"github.com/wolfeidau/orgstore/internal/telemetry"
	"github.com/wolfeidau/orgstore/internal/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/wolfeidau/orgstore/internal/repository"

// Write operation names, used as the operation metric attribute.
const (
	opInsert  = "insert"
	opUpdate  = "update"
	opReplace = "replace"
	opUpsert  = "upsert"
)

// Repository orchestrates validation, merging, invariant checks and versioned
// persistence of organisation aggregates.
type Repository struct {
	store     store.ReplicatedStore
	validator *validation.Validator
	cfg       Config
	now       organisation.Clock
	tracer    trace.Tracer
	metrics   *telemetry.Metrics
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the clock used for status history timestamps.
func WithClock(clock organisation.Clock) Option {
	return func(r *Repository) {
		r.now = clock
	}
}

// New creates a repository over the given store.
func New(st store.ReplicatedStore, cfg Config, opts ...Option) (*Repository, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	r := &Repository{
		store:     st,
		validator: validation.New(),
		cfg:       cfg,
		now:       organisation.SystemClock,
		tracer:    otel.Tracer(tracerName),
		metrics:   telemetry.GetMetrics(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// UpsertResult describes what Upsert did.
type UpsertResult struct {
	Organisation *models.Organisation
	Created      bool
	HasChanges   bool
}

// Insert stores a new organisation at version 1. Every status history starts at
// created regardless of the statuses supplied.
func (r *Repository) Insert(ctx context.Context, org *models.Organisation) (result *models.Organisation, err error) {
	ctx, finish := r.startWrite(ctx, opInsert, org.ID)
	defer func() { finish(err) }()

	if err := r.validator.ValidateInsert(org); err != nil {
		return nil, invalid(err)
	}

	doc, err := organisation.Seed(org, r.now(), "")
	if err != nil {
		return nil, err
	}

	if err := r.checkApprovals(ctx, doc); err != nil {
		return nil, err
	}

	if err := r.store.Primary().InsertOne(ctx, doc); err != nil {
		if errors.Is(err, store.ErrOrganisationAlreadyExists) {
			return nil, fmt.Errorf("%w: %s already exists", ErrConflict, org.ID)
		}
		return nil, fmt.Errorf("failed to insert organisation %s: %w", org.ID, err)
	}

	log.Debug().Str("org_id", doc.ID).Int("version", doc.Version).Msg("Inserted organisation")

	return doc, nil
}

// UpdateMerge applies a partial update on top of the version the caller last
// read. Registrations and accreditations in the update are merged by id; nested
// items it leaves out are kept.
func (r *Repository) UpdateMerge(ctx context.Context, id string, expectedVersion int, upd *models.OrganisationUpdate) (result *models.Organisation, err error) {
	ctx, finish := r.startWrite(ctx, opUpdate, id)
	defer func() { finish(err) }()

	return r.update(ctx, id, expectedVersion, upd)
}

func (r *Repository) update(ctx context.Context, id string, expectedVersion int, upd *models.OrganisationUpdate) (*models.Organisation, error) {
	if err := r.validator.ValidateUpdate(upd); err != nil {
		return nil, invalid(err)
	}

	existing, err := r.loadForWrite(ctx, id, expectedVersion)
	if err != nil {
		return nil, err
	}

	doc, err := organisation.ApplyUpdate(existing, upd, r.now())
	if err != nil {
		return nil, err
	}

	return r.commit(ctx, doc, expectedVersion)
}

// ReplaceAll overwrites the organisation with a complete payload. Registrations
// and accreditations missing from the payload are deleted from the aggregate.
func (r *Repository) ReplaceAll(ctx context.Context, id string, expectedVersion int, org *models.Organisation, updatedBy string) (result *models.Organisation, err error) {
	ctx, finish := r.startWrite(ctx, opReplace, id)
	defer func() { finish(err) }()

	if org.ID != "" && org.ID != id {
		return nil, fmt.Errorf("%w: payload id %s does not match %s", ErrConflict, org.ID, id)
	}

	payload, err := models.Clone(*org)
	if err != nil {
		return nil, err
	}
	payload.ID = id

	if err := r.validator.ValidateReplace(&payload); err != nil {
		return nil, invalid(err)
	}

	existing, err := r.loadForWrite(ctx, id, expectedVersion)
	if err != nil {
		return nil, err
	}

	doc, err := organisation.ApplyReplace(existing, &payload, r.now(), updatedBy)
	if err != nil {
		return nil, err
	}

	return r.commit(ctx, doc, expectedVersion)
}

// Upsert inserts org when its id is unknown. Otherwise it merges org into the
// stored aggregate and writes only when the merged result differs from what is
// stored, ignoring computed fields.
func (r *Repository) Upsert(ctx context.Context, org *models.Organisation) (result *UpsertResult, err error) {
	ctx, finish := r.startWrite(ctx, opUpsert, org.ID)
	defer func() { finish(err) }()

	existing, err := r.store.Primary().FindOne(ctx, org.ID)
	if errors.Is(err, store.ErrOrganisationNotFound) {
		created, err := r.Insert(ctx, org)
		if err != nil {
			return nil, err
		}
		return &UpsertResult{Organisation: created, Created: true, HasChanges: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load organisation %s: %w", org.ID, err)
	}

	upd := org.AsUpdate()
	if err := r.validator.ValidateUpdate(upd); err != nil {
		return nil, invalid(err)
	}

	merged, err := organisation.ApplyUpdate(existing, upd, r.now())
	if err != nil {
		return nil, err
	}

	// Merges never clear fields or drop nested items, so the payload alone can
	// differ from the stored aggregate without the write changing anything.
	changed, err := organisation.HasChanges(existing, merged)
	if err != nil {
		return nil, err
	}

	if !changed {
		log.Debug().Str("org_id", org.ID).Int("version", existing.Version).Msg("Upsert found no changes")
		return &UpsertResult{Organisation: existing}, nil
	}

	updated, err := r.commit(ctx, merged, existing.Version)
	if err != nil {
		return nil, err
	}

	return &UpsertResult{Organisation: updated, HasChanges: true}, nil
}

// loadForWrite reads the latest committed aggregate from the primary and checks
// the caller's version against it.
func (r *Repository) loadForWrite(ctx context.Context, id string, expectedVersion int) (*models.Organisation, error) {
	existing, err := r.store.Primary().FindOne(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrOrganisationNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load organisation %s: %w", id, err)
	}

	if existing.Version != expectedVersion {
		log.Warn().
			Str("org_id", id).
			Int("expected_version", expectedVersion).
			Int("version", existing.Version).
			Msg("Version conflict")
		return nil, fmt.Errorf("%w: %s is at version %d, expected %d", ErrConflict, id, existing.Version, expectedVersion)
	}

	return existing, nil
}

// commit checks the merged aggregate and swaps it in at expectedVersion+1.
func (r *Repository) commit(ctx context.Context, doc *models.Organisation, expectedVersion int) (*models.Organisation, error) {
	if err := r.checkApprovals(ctx, doc); err != nil {
		return nil, err
	}

	doc.Version = expectedVersion + 1

	matched, err := r.store.Primary().UpdateOne(ctx, store.VersionFilter{ID: doc.ID, Version: expectedVersion}, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to update organisation %s: %w", doc.ID, err)
	}

	if matched == 0 {
		log.Warn().Str("org_id", doc.ID).Int("expected_version", expectedVersion).Msg("Version changed during write")
		return nil, fmt.Errorf("%w: %s changed since version %d", ErrConflict, doc.ID, expectedVersion)
	}

	log.Debug().Str("org_id", doc.ID).Int("version", doc.Version).Msg("Updated organisation")

	return doc, nil
}

func (r *Repository) checkApprovals(ctx context.Context, doc *models.Organisation) error {
	if err := organisation.ValidateApprovals(doc); err != nil {
		r.metrics.InvariantViolationsTotal.Add(ctx, 1)
		return invalid(err)
	}
	return nil
}

// startWrite opens a span for a write and returns the function that records its
// outcome.
func (r *Repository) startWrite(ctx context.Context, operation, id string) (context.Context, func(error)) {
	started := time.Now()

	ctx, span := r.tracer.Start(ctx, "repository."+operation,
		trace.WithAttributes(attribute.String("org.id", id)))

	return ctx, func(err error) {
		outcome := outcomeOf(err)

		attrs := metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("outcome", outcome),
		)
		r.metrics.WritesTotal.Add(ctx, 1, attrs)
		r.metrics.WriteDuration.Record(ctx, float64(time.Since(started).Microseconds())/1000, attrs)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidData):
		return "invalid"
	default:
		return "error"
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidData, err)
}

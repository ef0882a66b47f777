package store

import (
	"context"
	"errors"

	"github.com/wolfeidau/orgstore/internal/models"
)

// Sentinel errors for organisation document operations
var (
	ErrOrganisationNotFound      = errors.New("organisation not found")
	ErrOrganisationAlreadyExists = errors.New("organisation already exists")
)

// VersionFilter addresses a document at the version the writer last observed.
type VersionFilter struct {
	ID      string
	Version int
}

// DocumentReader reads organisation documents. Returned documents are copies the
// caller may modify.
type DocumentReader interface {
	// FindOne returns ErrOrganisationNotFound if the document doesn't exist.
	FindOne(ctx context.Context, id string) (*models.Organisation, error)

	// FindAll returns every document ordered by id.
	FindAll(ctx context.Context) ([]*models.Organisation, error)
}

// DocumentStore is the authoritative, writable side of the store.
type DocumentStore interface {
	DocumentReader

	// InsertOne stores a new document.
	// Returns ErrOrganisationAlreadyExists if a document with the same ID exists.
	InsertOne(ctx context.Context, org *models.Organisation) error

	// UpdateOne replaces the document matching filter, only if its stored version
	// still equals filter.Version. Returns the number of documents matched, so a
	// stale or unknown filter yields 0 and no error.
	UpdateOne(ctx context.Context, filter VersionFilter, org *models.Organisation) (int64, error)
}

// ReplicatedStore splits writes, which land on the primary, from reads served by
// a replica that may lag behind it.
type ReplicatedStore interface {
	Primary() DocumentStore
	Replica() DocumentReader
}

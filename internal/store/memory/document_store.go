package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgstore/internal/models"
	"github.com/wolfeidau/orgstore/internal/store"
)

var _ store.ReplicatedStore = (*DocumentStore)(nil)

// Config holds configuration for the in-memory document store.
type Config struct {
	// ReplicationLag is how long an update waits before it is copied to the replica.
	// Default: 10ms
	ReplicationLag time.Duration

	// ImmediateReplication copies every write to the replica synchronously.
	ImmediateReplication bool
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.ReplicationLag == 0 {
		c.ReplicationLag = 10 * time.Millisecond
	}
}

// DocumentStore implements store.ReplicatedStore with two in-memory tiers: a
// primary map that takes every write and a replica snapshot that readers see.
// Inserts are copied to the replica at once. Updates schedule a propagation
// which a single background goroutine runs after ReplicationLag; scheduling
// again cancels and replaces the pending propagation.
// This implementation is for testing only - data is lost on restart.
type DocumentStore struct {
	mu sync.RWMutex

	primary map[string]*models.Organisation // id -> latest committed document
	replica map[string]*models.Organisation // id -> last propagated document

	cfg Config

	scheduleCh chan struct{}
	stopCh     chan struct{}
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

// NewDocumentStore creates a new in-memory document store. Call Start to run
// replica propagation.
func NewDocumentStore(cfg Config) *DocumentStore {
	cfg.ApplyDefaults()

	return &DocumentStore{
		primary:    make(map[string]*models.Organisation),
		replica:    make(map[string]*models.Organisation),
		cfg:        cfg,
		scheduleCh: make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
	}
}

// Start begins background replica propagation
func (s *DocumentStore) Start() error {
	s.wg.Add(1)
	go s.propagationLoop()
	return nil
}

// Stop terminates background propagation. Pending propagation is discarded.
func (s *DocumentStore) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	return nil
}

func (s *DocumentStore) Primary() store.DocumentStore {
	return &primaryCollection{s: s}
}

func (s *DocumentStore) Replica() store.DocumentReader {
	return &replicaCollection{s: s}
}

// SyncReplica copies the primary into the replica immediately.
func (s *DocumentStore) SyncReplica() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Stored documents are never mutated in place, so sharing pointers is safe.
	for id, org := range s.primary {
		s.replica[id] = org
	}

	log.Debug().Int("documents", len(s.primary)).Msg("Propagated primary to replica")
}

// schedulePropagation asks the propagation loop to (re)start its timer. A signal
// already waiting in the buffer covers this one too.
func (s *DocumentStore) schedulePropagation() {
	if s.cfg.ImmediateReplication {
		s.SyncReplica()
		return
	}

	select {
	case s.scheduleCh <- struct{}{}:
	default:
	}
}

// propagationLoop is the single consumer of propagation requests.
func (s *DocumentStore) propagationLoop() {
	defer s.wg.Done()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case <-s.scheduleCh:
			// Cancel whatever is pending; only the latest state matters.
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(s.cfg.ReplicationLag)
			fire = timer.C

		case <-fire:
			timer, fire = nil, nil
			s.SyncReplica()

		case <-s.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

type primaryCollection struct {
	s *DocumentStore
}

// FindOne retrieves the latest committed document.
func (c *primaryCollection) FindOne(ctx context.Context, id string) (*models.Organisation, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	return findOne(c.s.primary, id)
}

func (c *primaryCollection) FindAll(ctx context.Context) ([]*models.Organisation, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	return findAll(c.s.primary)
}

// InsertOne stores a new document on both tiers.
func (c *primaryCollection) InsertOne(ctx context.Context, org *models.Organisation) error {
	// Clone to avoid external modifications
	clone, err := models.Clone(org)
	if err != nil {
		return err
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, exists := c.s.primary[org.ID]; exists {
		return store.ErrOrganisationAlreadyExists
	}

	c.s.primary[org.ID] = clone
	c.s.replica[org.ID] = clone

	return nil
}

// UpdateOne swaps the document if the stored version matches, then schedules
// replica propagation.
func (c *primaryCollection) UpdateOne(ctx context.Context, filter store.VersionFilter, org *models.Organisation) (int64, error) {
	clone, err := models.Clone(org)
	if err != nil {
		return 0, err
	}

	c.s.mu.Lock()
	current, exists := c.s.primary[filter.ID]
	if !exists || current.Version != filter.Version {
		c.s.mu.Unlock()
		return 0, nil
	}
	c.s.primary[filter.ID] = clone
	c.s.mu.Unlock()

	c.s.schedulePropagation()

	return 1, nil
}

type replicaCollection struct {
	s *DocumentStore
}

// FindOne retrieves the last propagated document, which may be stale.
func (c *replicaCollection) FindOne(ctx context.Context, id string) (*models.Organisation, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	return findOne(c.s.replica, id)
}

func (c *replicaCollection) FindAll(ctx context.Context) ([]*models.Organisation, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	return findAll(c.s.replica)
}

func findOne(docs map[string]*models.Organisation, id string) (*models.Organisation, error) {
	org, exists := docs[id]
	if !exists {
		return nil, store.ErrOrganisationNotFound
	}

	// Clone to avoid external modifications
	return models.Clone(org)
}

func findAll(docs map[string]*models.Organisation) ([]*models.Organisation, error) {
	result := make([]*models.Organisation, 0, len(docs))
	for _, org := range docs {
		clone, err := models.Clone(org)
		if err != nil {
			return nil, err
		}
		result = append(result, clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

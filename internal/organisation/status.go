// Package organisation holds the pure aggregate rules: status history, nested
// collection merges, approval invariants, user collation and the upsert
// change detector. Nothing here touches a store.
package organisation

import (
	"time"

	"github.com/wolfeidau/orgstore/internal/models"
)

// Clock supplies the timestamp recorded on status history entries.
type Clock func() time.Time

// SystemClock is the production clock, UTC with the monotonic reading stripped.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// StatusTracked is implemented by every entity carrying a status history.
type StatusTracked interface {
	StatusValue() models.Status
	History() []models.StatusHistoryEntry
}

// CurrentStatus returns the status of the last history entry. An empty history
// is a broken invariant on a validated entity and panics.
func CurrentStatus(entity StatusTracked) models.Status {
	history := entity.History()
	if len(history) == 0 {
		panic("organisation: entity has an empty status history")
	}
	return history[len(history)-1].Status
}

// InitialStatusHistory seeds the history of a brand-new entity.
func InitialStatusHistory(at time.Time, updatedBy string) []models.StatusHistoryEntry {
	return []models.StatusHistoryEntry{{
		Status:    models.StatusCreated,
		UpdatedAt: at,
		UpdatedBy: updatedBy,
	}}
}

// NextStatusHistory computes the history after a write. A nil existing entity
// gets a fresh created entry. Otherwise an entry is appended only when requested
// is set and differs from the current status; the existing history is returned
// unchanged for no-op writes.
func NextStatusHistory(existing StatusTracked, requested models.Status, at time.Time, updatedBy string) []models.StatusHistoryEntry {
	if existing == nil {
		return InitialStatusHistory(at, updatedBy)
	}

	history := existing.History()
	if requested == "" || requested == CurrentStatus(existing) {
		return history
	}

	next := make([]models.StatusHistoryEntry, len(history), len(history)+1)
	copy(next, history)

	return append(next, models.StatusHistoryEntry{
		Status:    requested,
		UpdatedAt: at,
		UpdatedBy: updatedBy,
	})
}

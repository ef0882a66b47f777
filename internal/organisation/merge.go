package organisation

import (
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/wolfeidau/orgstore/internal/models"
)

// SubEntity is the shape shared by registrations and accreditations: an
// immutable caller-assigned id plus a status history.
type SubEntity[T any] interface {
	*T
	StatusTracked
	EntityID() string
	SetStatusHistory([]models.StatusHistoryEntry)
}

// MergeSubcollection overlays updates onto existing by id.
//
// A nil updates slice returns existing untouched. Matched items are merged field
// by field with the update winning and their history recomputed. Unmatched
// updates become new entities with a fresh created history. Existing items that
// are not addressed pass through as they are, so a merge never removes anything.
func MergeSubcollection[T any, P SubEntity[T]](existing, updates []T, at time.Time, updatedBy string) ([]T, error) {
	if updates == nil {
		return existing, nil
	}

	updatesByID := make(map[string]T, len(updates))
	for _, update := range updates {
		updatesByID[P(&update).EntityID()] = update
	}

	merged := make([]T, 0, len(existing)+len(updates))
	seen := make(map[string]struct{}, len(existing)+len(updates))

	for _, current := range existing {
		id := P(&current).EntityID()
		seen[id] = struct{}{}

		update, ok := updatesByID[id]
		if !ok {
			merged = append(merged, current)
			continue
		}

		item, err := mergeEntity[T, P](current, update, at, updatedBy)
		if err != nil {
			return nil, err
		}
		merged = append(merged, item)
	}

	for _, update := range updates {
		id := P(&update).EntityID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		item, err := seedEntity[T, P](update, at, updatedBy)
		if err != nil {
			return nil, err
		}
		merged = append(merged, item)
	}

	return merged, nil
}

// ReplaceSubcollection treats replacements as the complete desired set. Items
// missing from it are dropped. Items whose id already exists keep their history
// (appending on a status change), new ids are seeded.
func ReplaceSubcollection[T any, P SubEntity[T]](existing, replacements []T, at time.Time, updatedBy string) ([]T, error) {
	existingByID := make(map[string]T, len(existing))
	for _, current := range existing {
		existingByID[P(&current).EntityID()] = current
	}

	result := make([]T, 0, len(replacements))
	seen := make(map[string]struct{}, len(replacements))

	for _, replacement := range replacements {
		id := P(&replacement).EntityID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		current, ok := existingByID[id]
		if !ok {
			item, err := seedEntity[T, P](replacement, at, updatedBy)
			if err != nil {
				return nil, err
			}
			result = append(result, item)
			continue
		}

		item, err := models.Clone(replacement)
		if err != nil {
			return nil, err
		}
		P(&item).SetStatusHistory(NextStatusHistory(P(&current), P(&replacement).StatusValue(), at, updatedBy))
		result = append(result, item)
	}

	return result, nil
}

func mergeEntity[T any, P SubEntity[T]](current, update T, at time.Time, updatedBy string) (T, error) {
	merged, err := models.Clone(current)
	if err != nil {
		return merged, err
	}

	overlay, err := models.Clone(update)
	if err != nil {
		return merged, err
	}

	if err := mergo.Merge(&merged, overlay, mergo.WithOverride); err != nil {
		return merged, fmt.Errorf("failed to merge %s: %w", P(&current).EntityID(), err)
	}

	P(&merged).SetStatusHistory(NextStatusHistory(P(&current), P(&update).StatusValue(), at, updatedBy))

	return merged, nil
}

func seedEntity[T any, P SubEntity[T]](update T, at time.Time, updatedBy string) (T, error) {
	item, err := models.Clone(update)
	if err != nil {
		return item, err
	}

	P(&item).SetStatusHistory(InitialStatusHistory(at, updatedBy))

	return item, nil
}

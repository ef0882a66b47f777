package organisation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wolfeidau/orgstore/internal/models"
)

// Approvable is an entity taking part in the approval invariants.
type Approvable interface {
	StatusTracked
	EntityID() string
	ApprovalKey() string
}

// DuplicateApproval is a group of approved entities sharing one uniqueness key.
type DuplicateApproval struct {
	Key string
	IDs []string
}

// InvariantError reports every approval invariant broken by an aggregate.
type InvariantError struct {
	Violations []string
}

func (e *InvariantError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// ValidateApprovals checks the merged aggregate: every approved accreditation
// must be backed by a compatible approved registration, and no two approved
// registrations (or accreditations) may share a uniqueness key. All failures are
// reported together in a single *InvariantError.
func ValidateApprovals(org *models.Organisation) error {
	var violations []string

	for _, id := range FindOrphanedApprovedAccreditations(org) {
		violations = append(violations,
			fmt.Sprintf("approved accreditation %s has no linked approved registration", id))
	}

	for _, dup := range FindDuplicateApprovals(org.Registrations) {
		violations = append(violations,
			fmt.Sprintf("approved registrations %s share key %s", strings.Join(dup.IDs, ", "), dup.Key))
	}

	for _, dup := range FindDuplicateApprovals(org.Accreditations) {
		violations = append(violations,
			fmt.Sprintf("approved accreditations %s share key %s", strings.Join(dup.IDs, ", "), dup.Key))
	}

	if len(violations) == 0 {
		return nil
	}

	return &InvariantError{Violations: violations}
}

// FindOrphanedApprovedAccreditations returns the ids of approved accreditations
// with no registration that links to them, is approved and is key compatible.
func FindOrphanedApprovedAccreditations(org *models.Organisation) []string {
	var orphans []string

	for _, acc := range org.Accreditations {
		if CurrentStatus(acc) != models.StatusApproved {
			continue
		}

		backed := slices.ContainsFunc(org.Registrations, func(reg models.Registration) bool {
			return reg.AccreditationID == acc.ID &&
				CurrentStatus(reg) == models.StatusApproved &&
				compatible(reg, acc)
		})
		if !backed {
			orphans = append(orphans, acc.ID)
		}
	}

	return orphans
}

// FindDuplicateApprovals groups approved items by uniqueness key and returns the
// groups with more than one member, in order of first appearance.
func FindDuplicateApprovals[T Approvable](items []T) []DuplicateApproval {
	groups := make(map[string][]string)
	var keys []string

	for _, item := range items {
		if CurrentStatus(item) != models.StatusApproved {
			continue
		}

		key := item.ApprovalKey()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], item.EntityID())
	}

	var duplicates []DuplicateApproval
	for _, key := range keys {
		if len(groups[key]) > 1 {
			duplicates = append(duplicates, DuplicateApproval{Key: key, IDs: groups[key]})
		}
	}

	return duplicates
}

// compatible reports whether reg can back acc: same processing type and
// material, same site for reprocessors, and for exporters every port the
// accreditation lists is also listed by the registration.
func compatible(reg models.Registration, acc models.Accreditation) bool {
	if reg.ApprovalKey() != acc.ApprovalKey() {
		return false
	}

	if acc.WasteProcessingType != models.WasteProcessingTypeExporter {
		return true
	}

	for _, port := range acc.ExportPorts {
		if !slices.Contains(reg.ExportPorts, port) {
			return false
		}
	}

	return true
}

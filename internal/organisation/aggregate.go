package organisation

import (
	"fmt"
	"time"

	"dario.cat/mergo"
	"github.com/wolfeidau/orgstore/internal/models"
)

// Seed prepares a new aggregate for its first write: version 1, the current
// schema version and a created history on the organisation and every nested
// entity. Incoming statuses are ignored.
func Seed(org *models.Organisation, at time.Time, updatedBy string) (*models.Organisation, error) {
	doc, err := models.Clone(*org)
	if err != nil {
		return nil, err
	}

	doc.Version = 1
	doc.SchemaVersion = models.CurrentSchemaVersion
	doc.SetStatusHistory(InitialStatusHistory(at, updatedBy))

	for i := range doc.Registrations {
		doc.Registrations[i].SetStatusHistory(InitialStatusHistory(at, updatedBy))
	}
	for i := range doc.Accreditations {
		doc.Accreditations[i].SetStatusHistory(InitialStatusHistory(at, updatedBy))
	}

	doc.Users = CollateUsers(&doc)

	return &doc, nil
}

// ApplyUpdate overlays a partial update onto existing and returns the merged
// aggregate. Top-level fields present in the update win, nested collections are
// merged by id and never shrink. The version is left for the caller to bump.
func ApplyUpdate(existing *models.Organisation, upd *models.OrganisationUpdate, at time.Time) (*models.Organisation, error) {
	doc, err := models.Clone(*existing)
	if err != nil {
		return nil, err
	}

	overlay := models.Organisation{
		OrgID:                    upd.OrgID,
		WasteProcessingTypes:     upd.WasteProcessingTypes,
		SubmittedToRegulator:     upd.SubmittedToRegulator,
		FormSubmissionTime:       upd.FormSubmissionTime,
		ManagementContactDetails: upd.ManagementContactDetails,
	}
	if upd.CompanyDetails != nil {
		overlay.CompanyDetails = *upd.CompanyDetails
	}
	if upd.SubmitterContactDetails != nil {
		overlay.SubmitterContactDetails = *upd.SubmitterContactDetails
	}

	overlay, err = models.Clone(overlay)
	if err != nil {
		return nil, err
	}

	if err := mergo.Merge(&doc, overlay, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge organisation %s: %w", existing.ID, err)
	}

	doc.SetStatusHistory(NextStatusHistory(existing, upd.Status, at, upd.UpdatedBy))

	doc.Registrations, err = MergeSubcollection(existing.Registrations, upd.Registrations, at, upd.UpdatedBy)
	if err != nil {
		return nil, err
	}

	doc.Accreditations, err = MergeSubcollection(existing.Accreditations, upd.Accreditations, at, upd.UpdatedBy)
	if err != nil {
		return nil, err
	}

	doc.Users = CollateUsers(&doc)

	return &doc, nil
}

// ApplyReplace swaps the aggregate's content for replacement while keeping its
// identity, version and history. Nested items absent from replacement are
// removed.
func ApplyReplace(existing, replacement *models.Organisation, at time.Time, updatedBy string) (*models.Organisation, error) {
	doc, err := models.Clone(*replacement)
	if err != nil {
		return nil, err
	}

	doc.ID = existing.ID
	doc.Version = existing.Version
	doc.SchemaVersion = existing.SchemaVersion
	doc.SetStatusHistory(NextStatusHistory(existing, replacement.Status, at, updatedBy))

	doc.Registrations, err = ReplaceSubcollection(existing.Registrations, replacement.Registrations, at, updatedBy)
	if err != nil {
		return nil, err
	}

	doc.Accreditations, err = ReplaceSubcollection(existing.Accreditations, replacement.Accreditations, at, updatedBy)
	if err != nil {
		return nil, err
	}

	doc.Users = CollateUsers(&doc)

	return &doc, nil
}

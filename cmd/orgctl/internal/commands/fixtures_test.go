package commands

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgstore/internal/models"
	"github.com/wolfeidau/orgstore/internal/validation"
)

const fixtureYAML = `
id: org-1
orgId: 500001
wasteProcessingTypes: [reprocessor]
submittedToRegulator: ea
formSubmissionTime: "2025-03-01T09:00:00Z"
companyDetails:
  name: Acme Recycling Ltd
submitterContactDetails:
  fullName: Jo Bloggs
  email: jo@example.com
registrations:
  - id: reg-1
    material: paper
    wasteProcessingType: reprocessor
    site:
      address:
        postcode: AB12 3CD
---
- orgId: 500002
  wasteProcessingTypes: [exporter]
  submittedToRegulator: sepa
  formSubmissionTime: "2025-03-02T09:00:00Z"
  companyDetails:
    name: Export Co
  submitterContactDetails:
    fullName: Sam Smith
    email: sam@example.com
`

func TestDecodeFixtures(t *testing.T) {
	orgs, err := decodeFixtures(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	require.Len(t, orgs, 2)

	require.Equal(t, "org-1", orgs[0].ID)
	require.Equal(t, 500001, orgs[0].OrgID)
	require.Equal(t, []models.WasteProcessingType{models.WasteProcessingTypeReprocessor}, orgs[0].WasteProcessingTypes)
	require.NotNil(t, orgs[0].FormSubmissionTime)
	require.Len(t, orgs[0].Registrations, 1)
	require.Equal(t, "AB12 3CD", orgs[0].Registrations[0].Site.Postcode())

	require.Empty(t, orgs[1].ID)
	require.Equal(t, models.Regulator("sepa"), orgs[1].SubmittedToRegulator)
}

func TestDecodeFixturesJSON(t *testing.T) {
	orgs, err := decodeFixtures(strings.NewReader(`{"id": "org-9", "orgId": 9}`))
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	require.Equal(t, "org-9", orgs[0].ID)
}

func TestAssignIDs(t *testing.T) {
	t.Run("fills missing ids", func(t *testing.T) {
		org := &models.Organisation{
			Registrations:  []models.Registration{{}, {ID: "reg-keep"}},
			Accreditations: []models.Accreditation{{}},
		}

		assigned, err := assignIDs(org)
		require.NoError(t, err)
		require.True(t, assigned)

		parsed, err := uuid.Parse(org.ID)
		require.NoError(t, err)
		require.Equal(t, uuid.Version(7), parsed.Version())

		require.NotEmpty(t, org.Registrations[0].ID)
		require.Equal(t, "reg-keep", org.Registrations[1].ID)
		require.NotEmpty(t, org.Accreditations[0].ID)
	})

	t.Run("keeps complete fixtures", func(t *testing.T) {
		org := &models.Organisation{ID: "org-1"}

		assigned, err := assignIDs(org)
		require.NoError(t, err)
		require.False(t, assigned)
		require.Equal(t, "org-1", org.ID)
	})
}

func TestCheckFixture(t *testing.T) {
	v := validation.New()

	t.Run("valid fixture", func(t *testing.T) {
		orgs, err := decodeFixtures(strings.NewReader(fixtureYAML))
		require.NoError(t, err)
		require.NoError(t, checkFixture(v, orgs[0]))
	})

	t.Run("approved accreditation without registration", func(t *testing.T) {
		orgs, err := decodeFixtures(strings.NewReader(fixtureYAML))
		require.NoError(t, err)

		org := orgs[0]
		from, to := *org.FormSubmissionTime, org.FormSubmissionTime.AddDate(1, 0, 0)
		org.Accreditations = []models.Accreditation{{
			ID:                  "acc-1",
			Status:              models.StatusApproved,
			AccreditationNumber: "ACC-1",
			ValidFrom:           &from,
			ValidTo:             &to,
			Material:            models.MaterialPaper,
			WasteProcessingType: models.WasteProcessingTypeReprocessor,
			Site:                org.Registrations[0].Site,
		}}

		err = checkFixture(v, org)
		require.Error(t, err)
		require.Contains(t, err.Error(), "acc-1")
	})
}

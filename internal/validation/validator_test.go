package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/orgstore/internal/models"
	"github.com/wolfeidau/orgstore/internal/testutil"
)

func fieldErrors(t *testing.T, err error) Errors {
	t.Helper()

	var errs Errors
	require.True(t, errors.As(err, &errs), "expected validation.Errors, got %T", err)
	return errs
}

func TestValidateInsert(t *testing.T) {
	v := New()

	t.Run("valid organisation", func(t *testing.T) {
		org := testutil.Organisation("org-1")
		org.Registrations = []models.Registration{
			testutil.ApproveRegistration(testutil.Registration("reg-1", models.MaterialGlass, "AB12 3CD"), "R1"),
			testutil.ExporterRegistration("reg-2", models.MaterialPlastic, "Dover"),
		}
		org.Accreditations = []models.Accreditation{
			testutil.ExporterAccreditation("acc-1", models.MaterialPlastic),
		}
		require.NoError(t, v.ValidateInsert(org))
	})

	t.Run("all violations are collected", func(t *testing.T) {
		org := testutil.Organisation("")
		org.OrgID = 0
		org.WasteProcessingTypes = []models.WasteProcessingType{"landfill"}
		org.SubmittedToRegulator = "hmrc"
		org.SubmitterContactDetails.Email = "not-an-email"

		errs := fieldErrors(t, v.ValidateInsert(org))
		require.True(t, errs.Has("id", KindRequired))
		require.True(t, errs.Has("orgId", KindRequired))
		require.True(t, errs.Has("wasteProcessingTypes.0", KindOption))
		require.True(t, errs.Has("submittedToRegulator", KindOption))
		require.True(t, errs.Has("submitterContactDetails.email", KindEmail))
	})

	t.Run("errors never carry values", func(t *testing.T) {
		org := testutil.Organisation("org-1")
		org.SubmitterContactDetails.Email = "secret-person-at-example"

		err := v.ValidateInsert(org)
		require.Error(t, err)
		require.NotContains(t, err.Error(), "secret-person")
		require.Equal(t, "submitterContactDetails.email: invalid_email", err.Error())
	})

	t.Run("empty processing types", func(t *testing.T) {
		org := testutil.Organisation("org-1")
		org.WasteProcessingTypes = nil

		errs := fieldErrors(t, v.ValidateInsert(org))
		require.True(t, errs.Has("wasteProcessingTypes", KindRequired))
	})

	t.Run("duplicate nested ids", func(t *testing.T) {
		org := testutil.Organisation("org-1")
		org.Registrations = []models.Registration{
			testutil.Registration("reg-1", models.MaterialPaper, "AB12 3CD"),
			testutil.Registration("reg-1", models.MaterialSteel, "AB12 3CD"),
		}

		errs := fieldErrors(t, v.ValidateInsert(org))
		require.Equal(t, Errors{{Path: "registrations.1.id", Kind: KindDuplicate}}, errs)
	})

	t.Run("nested structural errors use indexed paths", func(t *testing.T) {
		org := testutil.Organisation("org-1")
		reg := testutil.Registration("reg-1", models.MaterialPaper, "")
		reg.Material = "cardboard"
		org.Registrations = []models.Registration{reg}

		errs := fieldErrors(t, v.ValidateInsert(org))
		require.True(t, errs.Has("registrations.0.material", KindOption))
		require.True(t, errs.Has("registrations.0.site.address.postcode", KindRequired))
	})

	t.Run("approval details are not required on insert", func(t *testing.T) {
		org := testutil.Organisation("org-1")
		org.Registrations = []models.Registration{
			testutil.ApproveRegistration(testutil.Registration("reg-1", models.MaterialPaper, "AB12 3CD"), ""),
		}
		org.Accreditations = []models.Accreditation{
			testutil.ApproveAccreditation(testutil.Accreditation("acc-1", models.MaterialPaper, "AB12 3CD"), ""),
		}

		require.NoError(t, v.ValidateInsert(org))
		require.Error(t, v.ValidateReplace(org))
	})
}

func TestRegistrationRules(t *testing.T) {
	approved := testutil.ApproveRegistration(testutil.Registration("reg-1", models.MaterialPaper, "AB12 3CD"), "R1")

	tests := []struct {
		name   string
		mutate func(reg *models.Registration)
		want   Errors
	}{
		{
			name:   "approved with details",
			mutate: func(reg *models.Registration) {},
		},
		{
			name:   "approved without number",
			mutate: func(reg *models.Registration) { reg.RegistrationNumber = "" },
			want:   Errors{{Path: "registrations.0.registrationNumber", Kind: KindRequired}},
		},
		{
			name: "suspended without validity",
			mutate: func(reg *models.Registration) {
				reg.Status = models.StatusSuspended
				reg.ValidFrom, reg.ValidTo = nil, nil
			},
			want: Errors{
				{Path: "registrations.0.validFrom", Kind: KindRequired},
				{Path: "registrations.0.validTo", Kind: KindRequired},
			},
		},
		{
			name: "validity reversed",
			mutate: func(reg *models.Registration) {
				reg.ValidFrom, reg.ValidTo = reg.ValidTo, reg.ValidFrom
			},
			want: Errors{{Path: "registrations.0.validTo", Kind: KindOrder}},
		},
		{
			name: "created needs no approval details",
			mutate: func(reg *models.Registration) {
				reg.Status = models.StatusCreated
				reg.RegistrationNumber = ""
				reg.ValidFrom, reg.ValidTo = nil, nil
			},
		},
		{
			name:   "reprocessor without site",
			mutate: func(reg *models.Registration) { reg.Site = nil },
			want:   Errors{{Path: "registrations.0.site", Kind: KindRequired}},
		},
		{
			name:   "reprocessor with ports",
			mutate: func(reg *models.Registration) { reg.ExportPorts = []string{"Dover"} },
			want:   Errors{{Path: "registrations.0.exportPorts", Kind: KindForbidden}},
		},
		{
			name: "exporter with site and no ports",
			mutate: func(reg *models.Registration) {
				reg.WasteProcessingType = models.WasteProcessingTypeExporter
			},
			want: Errors{
				{Path: "registrations.0.site", Kind: KindForbidden},
				{Path: "registrations.0.exportPorts", Kind: KindRequired},
			},
		},
		{
			name:   "glass without process",
			mutate: func(reg *models.Registration) { reg.Material = models.MaterialGlass },
			want:   Errors{{Path: "registrations.0.glassRecyclingProcess", Kind: KindRequired}},
		},
		{
			name: "process on non-glass",
			mutate: func(reg *models.Registration) {
				reg.GlassRecyclingProcess = []models.GlassRecyclingProcess{models.GlassRecyclingProcessOther}
			},
			want: Errors{{Path: "registrations.0.glassRecyclingProcess", Kind: KindForbidden}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := approved
			tt.mutate(&reg)
			require.Equal(t, tt.want, registrationRules("registrations.0", reg, true))
		})
	}
}

func TestAccreditationRules(t *testing.T) {
	t.Run("approved without number", func(t *testing.T) {
		acc := testutil.ApproveAccreditation(testutil.Accreditation("acc-1", models.MaterialPaper, "AB12 3CD"), "")
		require.Equal(t,
			Errors{{Path: "accreditations.0.accreditationNumber", Kind: KindRequired}},
			accreditationRules("accreditations.0", acc, true))
	})

	t.Run("exporter ports are optional", func(t *testing.T) {
		acc := testutil.ExporterAccreditation("acc-1", models.MaterialPlastic)
		require.Empty(t, accreditationRules("accreditations.0", acc, true))
	})

	t.Run("status rules off", func(t *testing.T) {
		acc := testutil.ApproveAccreditation(testutil.Accreditation("acc-1", models.MaterialPaper, "AB12 3CD"), "")
		require.Empty(t, accreditationRules("accreditations.0", acc, false))
	})
}

func TestValidateUpdate(t *testing.T) {
	v := New()

	t.Run("empty update is valid", func(t *testing.T) {
		require.NoError(t, v.ValidateUpdate(&models.OrganisationUpdate{}))
	})

	t.Run("write-once fields are forbidden", func(t *testing.T) {
		errs := fieldErrors(t, v.ValidateUpdate(&models.OrganisationUpdate{
			ID:            "org-2",
			Version:       3,
			SchemaVersion: 1,
		}))
		require.True(t, errs.Has("id", KindForbidden))
		require.True(t, errs.Has("version", KindForbidden))
		require.True(t, errs.Has("schemaVersion", KindForbidden))
	})

	t.Run("nested approval details are enforced", func(t *testing.T) {
		reg := testutil.ApproveRegistration(testutil.Registration("reg-1", models.MaterialPaper, "AB12 3CD"), "")

		errs := fieldErrors(t, v.ValidateUpdate(&models.OrganisationUpdate{Registrations: []models.Registration{reg}}))
		require.True(t, errs.Has("registrations.0.registrationNumber", KindRequired))
	})

	t.Run("present top-level fields are checked", func(t *testing.T) {
		errs := fieldErrors(t, v.ValidateUpdate(&models.OrganisationUpdate{
			Status:                  "pending",
			SubmitterContactDetails: &models.ContactDetails{FullName: "Jo"},
		}))
		require.True(t, errs.Has("status", KindOption))
		require.True(t, errs.Has("submitterContactDetails.email", KindRequired))
	})
}

func TestValidateReplace(t *testing.T) {
	v := New()

	org := testutil.Organisation("org-1")
	org.Version = 2
	org.SchemaVersion = 1

	errs := fieldErrors(t, v.ValidateReplace(org))
	require.Equal(t, Errors{
		{Path: "version", Kind: KindForbidden},
		{Path: "schemaVersion", Kind: KindForbidden},
	}, errs)
}

func TestFieldPath(t *testing.T) {
	require.Equal(t, "registrations.0.site.address.postcode", fieldPath("Organisation.registrations[0].site.address.postcode"))
	require.Equal(t, "orgId", fieldPath("Organisation.orgId"))
}

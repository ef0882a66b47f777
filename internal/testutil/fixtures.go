// Package testutil builds valid organisation aggregates for tests.
package testutil

import (
	"sync"
	"time"

	"github.com/wolfeidau/orgstore/internal/models"
)

// Epoch is the fixed instant fixtures and test clocks start from.
var Epoch = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

// Clock returns a clock that advances one second per call starting at Epoch.
func Clock() func() time.Time {
	var (
		mu   sync.Mutex
		next = Epoch
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}

// FixedClock always returns at.
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// Organisation returns a valid reprocessor organisation with no nested items.
func Organisation(id string) *models.Organisation {
	submitted := Epoch
	return &models.Organisation{
		ID:                   id,
		OrgID:                500001,
		WasteProcessingTypes: []models.WasteProcessingType{models.WasteProcessingTypeReprocessor},
		SubmittedToRegulator: models.RegulatorEA,
		FormSubmissionTime:   &submitted,
		CompanyDetails: models.CompanyDetails{
			Name: "Acme Recycling Ltd",
		},
		SubmitterContactDetails: models.ContactDetails{
			FullName: "Jo Bloggs",
			Email:    "jo@example.com",
		},
	}
}

// Registration returns a created reprocessor registration at postcode.
func Registration(id string, material models.Material, postcode string) models.Registration {
	reg := models.Registration{
		ID:                  id,
		Material:            material,
		WasteProcessingType: models.WasteProcessingTypeReprocessor,
		Site:                site(postcode),
	}
	if material == models.MaterialGlass {
		reg.GlassRecyclingProcess = []models.GlassRecyclingProcess{models.GlassRecyclingProcessReMelt}
	}
	return reg
}

// ExporterRegistration returns a created exporter registration.
func ExporterRegistration(id string, material models.Material, ports ...string) models.Registration {
	return models.Registration{
		ID:                  id,
		Material:            material,
		WasteProcessingType: models.WasteProcessingTypeExporter,
		ExportPorts:         ports,
	}
}

// Accreditation returns a created reprocessor accreditation at postcode.
func Accreditation(id string, material models.Material, postcode string) models.Accreditation {
	acc := models.Accreditation{
		ID:                  id,
		Material:            material,
		WasteProcessingType: models.WasteProcessingTypeReprocessor,
		Site:                site(postcode),
	}
	if material == models.MaterialGlass {
		acc.GlassRecyclingProcess = []models.GlassRecyclingProcess{models.GlassRecyclingProcessReMelt}
	}
	return acc
}

// ExporterAccreditation returns a created exporter accreditation.
func ExporterAccreditation(id string, material models.Material, ports ...string) models.Accreditation {
	return models.Accreditation{
		ID:                  id,
		Material:            material,
		WasteProcessingType: models.WasteProcessingTypeExporter,
		ExportPorts:         ports,
	}
}

// ApproveRegistration sets the approved status with the details it requires.
func ApproveRegistration(reg models.Registration, number string) models.Registration {
	from, to := validity()
	reg.Status = models.StatusApproved
	reg.RegistrationNumber = number
	reg.ValidFrom = &from
	reg.ValidTo = &to
	return reg
}

// ApproveAccreditation sets the approved status with the details it requires.
func ApproveAccreditation(acc models.Accreditation, number string) models.Accreditation {
	from, to := validity()
	acc.Status = models.StatusApproved
	acc.AccreditationNumber = number
	acc.ValidFrom = &from
	acc.ValidTo = &to
	return acc
}

// WithHistory gives every entity in org a created history at Epoch, the shape
// of a stored aggregate.
func WithHistory(org *models.Organisation) *models.Organisation {
	history := func(status models.Status) []models.StatusHistoryEntry {
		entries := []models.StatusHistoryEntry{{Status: models.StatusCreated, UpdatedAt: Epoch}}
		if status != "" && status != models.StatusCreated {
			entries = append(entries, models.StatusHistoryEntry{Status: status, UpdatedAt: Epoch})
		}
		return entries
	}

	org.SetStatusHistory(history(org.Status))
	for i := range org.Registrations {
		org.Registrations[i].SetStatusHistory(history(org.Registrations[i].Status))
	}
	for i := range org.Accreditations {
		org.Accreditations[i].SetStatusHistory(history(org.Accreditations[i].Status))
	}
	return org
}

func validity() (time.Time, time.Time) {
	return Epoch, Epoch.AddDate(1, 0, 0)
}

func site(postcode string) *models.Site {
	return &models.Site{
		Address: models.Address{
			Line1:    "1 Mill Lane",
			Town:     "Papertown",
			Postcode: postcode,
		},
	}
}

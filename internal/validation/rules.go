package validation

import (
	"time"

	"github.com/wolfeidau/orgstore/internal/models"
)

// The conditional matrix (status x processing type x material) lives in these
// functions rather than in struct tags so each branch can be tested directly.

func registrationRules(path string, reg models.Registration, statusRules bool) Errors {
	var errs Errors

	if statusRules && reg.Status.RequiresApprovalDetails() {
		if reg.RegistrationNumber == "" {
			errs = append(errs, FieldError{Path: path + ".registrationNumber", Kind: KindRequired})
		}
		errs = append(errs, validityRules(path, reg.ValidFrom, reg.ValidTo)...)
	}

	errs = append(errs, processingTypeRules(path, reg.WasteProcessingType, reg.Site, reg.ExportPorts, true)...)
	errs = append(errs, glassRules(path, reg.Material, reg.GlassRecyclingProcess)...)

	return errs
}

func accreditationRules(path string, acc models.Accreditation, statusRules bool) Errors {
	var errs Errors

	if statusRules && acc.Status.RequiresApprovalDetails() {
		if acc.AccreditationNumber == "" {
			errs = append(errs, FieldError{Path: path + ".accreditationNumber", Kind: KindRequired})
		}
		errs = append(errs, validityRules(path, acc.ValidFrom, acc.ValidTo)...)
	}

	errs = append(errs, processingTypeRules(path, acc.WasteProcessingType, acc.Site, acc.ExportPorts, false)...)
	errs = append(errs, glassRules(path, acc.Material, acc.GlassRecyclingProcess)...)

	return errs
}

func validityRules(path string, from, to *time.Time) Errors {
	var errs Errors

	if from == nil {
		errs = append(errs, FieldError{Path: path + ".validFrom", Kind: KindRequired})
	}
	if to == nil {
		errs = append(errs, FieldError{Path: path + ".validTo", Kind: KindRequired})
	}
	if from != nil && to != nil && to.Before(*from) {
		errs = append(errs, FieldError{Path: path + ".validTo", Kind: KindOrder})
	}

	return errs
}

// processingTypeRules: a site is required for reprocessors and forbidden for
// exporters; export ports are forbidden for reprocessors and, on registrations,
// required for exporters.
func processingTypeRules(path string, processingType models.WasteProcessingType, site *models.Site, ports []string, portsRequired bool) Errors {
	var errs Errors

	switch processingType {
	case models.WasteProcessingTypeReprocessor:
		if site == nil {
			errs = append(errs, FieldError{Path: path + ".site", Kind: KindRequired})
		}
		if len(ports) > 0 {
			errs = append(errs, FieldError{Path: path + ".exportPorts", Kind: KindForbidden})
		}
	case models.WasteProcessingTypeExporter:
		if site != nil {
			errs = append(errs, FieldError{Path: path + ".site", Kind: KindForbidden})
		}
		if portsRequired && len(ports) == 0 {
			errs = append(errs, FieldError{Path: path + ".exportPorts", Kind: KindRequired})
		}
	}

	return errs
}

func glassRules(path string, material models.Material, processes []models.GlassRecyclingProcess) Errors {
	switch {
	case material == models.MaterialGlass && len(processes) == 0:
		return Errors{{Path: path + ".glassRecyclingProcess", Kind: KindRequired}}
	case material != models.MaterialGlass && len(processes) > 0:
		return Errors{{Path: path + ".glassRecyclingProcess", Kind: KindForbidden}}
	}
	return nil
}

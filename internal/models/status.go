package models

import "time"

// Status is the lifecycle state shared by organisations, registrations and accreditations.
type Status string

const (
	StatusCreated   Status = "created"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSuspended Status = "suspended"
	StatusArchived  Status = "archived"
)

// RequiresApprovalDetails reports whether an entity in this status must carry its
// issued number and validity dates.
func (s Status) RequiresApprovalDetails() bool {
	return s == StatusApproved || s == StatusSuspended
}

// StatusHistoryEntry is one append-only transition record.
type StatusHistoryEntry struct {
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

type WasteProcessingType string

const (
	WasteProcessingTypeReprocessor WasteProcessingType = "reprocessor"
	WasteProcessingTypeExporter    WasteProcessingType = "exporter"
)

type Material string

const (
	MaterialAluminium Material = "aluminium"
	MaterialFibre     Material = "fibre"
	MaterialGlass     Material = "glass"
	MaterialPaper     Material = "paper"
	MaterialPlastic   Material = "plastic"
	MaterialSteel     Material = "steel"
	MaterialWood      Material = "wood"
)

type GlassRecyclingProcess string

const (
	GlassRecyclingProcessReMelt GlassRecyclingProcess = "glass_re_melt"
	GlassRecyclingProcessOther  GlassRecyclingProcess = "glass_other"
)

// Regulator identifies the environmental regulator a form was submitted to.
type Regulator string

const (
	RegulatorEA   Regulator = "ea"
	RegulatorNRW  Regulator = "nrw"
	RegulatorSEPA Regulator = "sepa"
	RegulatorNIEA Regulator = "niea"
)

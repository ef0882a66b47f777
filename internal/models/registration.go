package models

import "time"

// Registration is a site or exporter registration nested in an organisation.
// ID is assigned by the caller and never changes once stored.
type Registration struct {
	ID            string               `json:"id" validate:"required"`
	Status        Status               `json:"status,omitempty" validate:"omitempty,oneof=created approved rejected suspended archived"`
	StatusHistory []StatusHistoryEntry `json:"statusHistory,omitempty"`

	// Issued on approval.
	RegistrationNumber string     `json:"registrationNumber,omitempty"`
	ValidFrom          *time.Time `json:"validFrom,omitempty"`
	ValidTo            *time.Time `json:"validTo,omitempty"`

	FormSubmissionTime    *time.Time              `json:"formSubmissionTime,omitempty"`
	SubmittedToRegulator  Regulator               `json:"submittedToRegulator,omitempty" validate:"omitempty,oneof=ea nrw sepa niea"`
	Material              Material                `json:"material" validate:"required,oneof=aluminium fibre glass paper plastic steel wood"`
	WasteProcessingType   WasteProcessingType     `json:"wasteProcessingType" validate:"required,oneof=reprocessor exporter"`
	GlassRecyclingProcess []GlassRecyclingProcess `json:"glassRecyclingProcess,omitempty" validate:"omitempty,dive,oneof=glass_re_melt glass_other"`

	// Reprocessor only.
	Site *Site `json:"site,omitempty"`
	// Exporter only.
	ExportPorts []string `json:"exportPorts,omitempty" validate:"omitempty,dive,required"`

	NoticeAddress           *Address        `json:"noticeAddress,omitempty"`
	SubmitterContactDetails *ContactDetails `json:"submitterContactDetails,omitempty"`

	// AccreditationID links the registration to the accreditation it backs.
	AccreditationID string `json:"accreditationId,omitempty"`
}

func (r Registration) EntityID() string                  { return r.ID }
func (r Registration) StatusValue() Status               { return r.Status }
func (r Registration) History() []StatusHistoryEntry     { return r.StatusHistory }
func (r Registration) ApprovalKey() string               { return approvalKey(r.WasteProcessingType, r.Material, r.Site) }
func (r Registration) SubmitterContact() *ContactDetails { return r.SubmitterContactDetails }

func (r *Registration) SetStatusHistory(history []StatusHistoryEntry) {
	r.StatusHistory = history
	if len(history) > 0 {
		r.Status = history[len(history)-1].Status
	}
}

// Accreditation is the accreditation held against a registration.
type Accreditation struct {
	ID            string               `json:"id" validate:"required"`
	Status        Status               `json:"status,omitempty" validate:"omitempty,oneof=created approved rejected suspended archived"`
	StatusHistory []StatusHistoryEntry `json:"statusHistory,omitempty"`

	// Issued on approval.
	AccreditationNumber string     `json:"accreditationNumber,omitempty"`
	ValidFrom           *time.Time `json:"validFrom,omitempty"`
	ValidTo             *time.Time `json:"validTo,omitempty"`

	FormSubmissionTime    *time.Time              `json:"formSubmissionTime,omitempty"`
	SubmittedToRegulator  Regulator               `json:"submittedToRegulator,omitempty" validate:"omitempty,oneof=ea nrw sepa niea"`
	Material              Material                `json:"material" validate:"required,oneof=aluminium fibre glass paper plastic steel wood"`
	WasteProcessingType   WasteProcessingType     `json:"wasteProcessingType" validate:"required,oneof=reprocessor exporter"`
	GlassRecyclingProcess []GlassRecyclingProcess `json:"glassRecyclingProcess,omitempty" validate:"omitempty,dive,oneof=glass_re_melt glass_other"`

	// Reprocessor only.
	Site *Site `json:"site,omitempty"`
	// Exporter only. When listed, every port must also be listed by the linked registration.
	ExportPorts []string `json:"exportPorts,omitempty" validate:"omitempty,dive,required"`

	SubmitterContactDetails *ContactDetails `json:"submitterContactDetails,omitempty"`
}

func (a Accreditation) EntityID() string                  { return a.ID }
func (a Accreditation) StatusValue() Status               { return a.Status }
func (a Accreditation) History() []StatusHistoryEntry     { return a.StatusHistory }
func (a Accreditation) ApprovalKey() string               { return approvalKey(a.WasteProcessingType, a.Material, a.Site) }
func (a Accreditation) SubmitterContact() *ContactDetails { return a.SubmitterContactDetails }

func (a *Accreditation) SetStatusHistory(history []StatusHistoryEntry) {
	a.StatusHistory = history
	if len(history) > 0 {
		a.Status = history[len(history)-1].Status
	}
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// CurrentSchemaVersion is stamped on every organisation document at insert time.
const CurrentSchemaVersion = 1

// Organisation is the root aggregate. Registrations and accreditations are nested
// inside it and share its version counter.
type Organisation struct {
	ID            string               `json:"id" validate:"required"`
	OrgID         int                  `json:"orgId" validate:"required,gt=0"`
	Version       int                  `json:"version,omitempty"`
	SchemaVersion int                  `json:"schemaVersion,omitempty"`
	Status        Status               `json:"status,omitempty" validate:"omitempty,oneof=created approved rejected suspended archived"`
	StatusHistory []StatusHistoryEntry `json:"statusHistory,omitempty"`

	WasteProcessingTypes     []WasteProcessingType `json:"wasteProcessingTypes" validate:"required,min=1,dive,oneof=reprocessor exporter"`
	SubmittedToRegulator     Regulator             `json:"submittedToRegulator" validate:"required,oneof=ea nrw sepa niea"`
	FormSubmissionTime       *time.Time            `json:"formSubmissionTime,omitempty" validate:"required"`
	CompanyDetails           CompanyDetails        `json:"companyDetails"`
	SubmitterContactDetails  ContactDetails        `json:"submitterContactDetails"`
	ManagementContactDetails *ContactDetails       `json:"managementContactDetails,omitempty"`

	Registrations  []Registration  `json:"registrations,omitempty" validate:"dive"`
	Accreditations []Accreditation `json:"accreditations,omitempty" validate:"dive"`
	Users          []User          `json:"users,omitempty"`
}

// StatusValue returns the stored status field.
func (o Organisation) StatusValue() Status { return o.Status }

// History returns the status history.
func (o Organisation) History() []StatusHistoryEntry { return o.StatusHistory }

// SetStatusHistory replaces the history and keeps Status in step with its last entry.
func (o *Organisation) SetStatusHistory(history []StatusHistoryEntry) {
	o.StatusHistory = history
	if len(history) > 0 {
		o.Status = history[len(history)-1].Status
	}
}

// AsUpdate projects a full organisation onto an update payload, dropping the
// write-once fields.
func (o Organisation) AsUpdate() *OrganisationUpdate {
	upd := &OrganisationUpdate{
		OrgID:                    o.OrgID,
		Status:                   o.Status,
		WasteProcessingTypes:     o.WasteProcessingTypes,
		SubmittedToRegulator:     o.SubmittedToRegulator,
		FormSubmissionTime:       o.FormSubmissionTime,
		ManagementContactDetails: o.ManagementContactDetails,
		Registrations:            o.Registrations,
		Accreditations:           o.Accreditations,
	}

	companyDetails := o.CompanyDetails
	upd.CompanyDetails = &companyDetails

	submitter := o.SubmitterContactDetails
	upd.SubmitterContactDetails = &submitter

	return upd
}

// OrganisationUpdate is a partial organisation. Zero fields are left untouched,
// a nil Registrations or Accreditations slice leaves that subcollection as is.
// Nested items are merged by id and never removed.
type OrganisationUpdate struct {
	// Write-once fields, rejected when present.
	ID            string `json:"id,omitempty" validate:"isdefault"`
	Version       int    `json:"version,omitempty" validate:"isdefault"`
	SchemaVersion int    `json:"schemaVersion,omitempty" validate:"isdefault"`

	OrgID  int    `json:"orgId,omitempty" validate:"omitempty,gt=0"`
	Status Status `json:"status,omitempty" validate:"omitempty,oneof=created approved rejected suspended archived"`

	// UpdatedBy is recorded on every status history entry appended by this update.
	UpdatedBy string `json:"updatedBy,omitempty"`

	WasteProcessingTypes     []WasteProcessingType `json:"wasteProcessingTypes,omitempty" validate:"omitempty,min=1,dive,oneof=reprocessor exporter"`
	SubmittedToRegulator     Regulator             `json:"submittedToRegulator,omitempty" validate:"omitempty,oneof=ea nrw sepa niea"`
	FormSubmissionTime       *time.Time            `json:"formSubmissionTime,omitempty"`
	CompanyDetails           *CompanyDetails       `json:"companyDetails,omitempty"`
	SubmitterContactDetails  *ContactDetails       `json:"submitterContactDetails,omitempty"`
	ManagementContactDetails *ContactDetails       `json:"managementContactDetails,omitempty"`

	Registrations  []Registration  `json:"registrations,omitempty" validate:"omitempty,dive"`
	Accreditations []Accreditation `json:"accreditations,omitempty" validate:"omitempty,dive"`
}

type CompanyDetails struct {
	Name               string   `json:"name" validate:"required"`
	TradingName        string   `json:"tradingName,omitempty"`
	RegistrationNumber string   `json:"registrationNumber,omitempty"`
	RegisteredAddress  *Address `json:"registeredAddress,omitempty"`
}

type ContactDetails struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty"`
	JobTitle string `json:"jobTitle,omitempty"`
}

type Address struct {
	Line1    string `json:"line1,omitempty"`
	Line2    string `json:"line2,omitempty"`
	Town     string `json:"town,omitempty"`
	County   string `json:"county,omitempty"`
	Country  string `json:"country,omitempty"`
	Postcode string `json:"postcode" validate:"required"`
}

type Site struct {
	Address       Address `json:"address"`
	GridReference string  `json:"gridReference,omitempty"`
}

// Postcode returns the site postcode, or "" for a nil site.
func (s *Site) Postcode() string {
	if s == nil {
		return ""
	}
	return s.Address.Postcode
}

// User is a contact collated from the organisation and its nested entities.
type User struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// NormalisePostcode upper-cases a postcode and collapses its whitespace so that
// "ab12  3cd" and "AB12 3CD" compare equal.
func NormalisePostcode(postcode string) string {
	return strings.Join(strings.Fields(strings.ToUpper(postcode)), " ")
}

// approvalKey builds the business uniqueness key shared by registrations and
// accreditations: type::material, plus ::postcode for reprocessors.
func approvalKey(processingType WasteProcessingType, material Material, site *Site) string {
	if processingType == WasteProcessingTypeReprocessor {
		return fmt.Sprintf("%s::%s::%s", processingType, material, NormalisePostcode(site.Postcode()))
	}
	return fmt.Sprintf("%s::%s", processingType, material)
}

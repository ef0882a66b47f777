// Package validation rejects structurally invalid organisation payloads before
// they reach the aggregate rules. Errors carry the field path and the kind of
// violation only, never the offending value.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/wolfeidau/orgstore/internal/models"
)

// Violation kinds.
const (
	KindRequired  = "required"
	KindForbidden = "forbidden"
	KindDuplicate = "duplicate"
	KindInvalid   = "invalid"
	KindOption    = "invalid_option"
	KindEmail     = "invalid_email"
	KindTooSmall  = "too_small"
	KindOrder     = "before_valid_from"
)

// FieldError is one violation, addressed by a dotted path such as
// registrations.0.registrationNumber.
type FieldError struct {
	Path string
	Kind string
}

func (e FieldError) String() string {
	return e.Path + ": " + e.Kind
}

// Errors collects every violation found in a payload.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.String()
	}
	return strings.Join(parts, "; ")
}

// Has reports whether a violation of kind exists at path.
func (e Errors) Has(path, kind string) bool {
	for _, fe := range e {
		if fe.Path == path && fe.Kind == kind {
			return true
		}
	}
	return false
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so paths match the document form.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// ValidateInsert checks a complete organisation for insert. Insert seeds every
// entity as created, so the rules tied to approved and suspended statuses are
// not applied.
func (v *Validator) ValidateInsert(org *models.Organisation) error {
	errs := v.structErrors(org)
	errs = append(errs, v.nestedRules(org.Registrations, org.Accreditations, false)...)
	return result(errs)
}

// ValidateReplace checks a complete replacement payload. The write-once version
// fields must be absent; the id is checked by the caller against the addressed
// organisation.
func (v *Validator) ValidateReplace(org *models.Organisation) error {
	errs := v.structErrors(org)
	if org.Version != 0 {
		errs = append(errs, FieldError{Path: "version", Kind: KindForbidden})
	}
	if org.SchemaVersion != 0 {
		errs = append(errs, FieldError{Path: "schemaVersion", Kind: KindForbidden})
	}
	errs = append(errs, v.nestedRules(org.Registrations, org.Accreditations, true)...)
	return result(errs)
}

// ValidateUpdate checks a partial update. Only the fields present are checked,
// but nested items are always validated as complete entities.
func (v *Validator) ValidateUpdate(upd *models.OrganisationUpdate) error {
	errs := v.structErrors(upd)
	errs = append(errs, v.nestedRules(upd.Registrations, upd.Accreditations, true)...)
	return result(errs)
}

func (v *Validator) nestedRules(registrations []models.Registration, accreditations []models.Accreditation, statusRules bool) Errors {
	var errs Errors

	errs = append(errs, duplicateIDs("registrations", registrations)...)
	for i, reg := range registrations {
		errs = append(errs, registrationRules(itemPath("registrations", i), reg, statusRules)...)
	}

	errs = append(errs, duplicateIDs("accreditations", accreditations)...)
	for i, acc := range accreditations {
		errs = append(errs, accreditationRules(itemPath("accreditations", i), acc, statusRules)...)
	}

	return errs
}

func (v *Validator) structErrors(payload any) Errors {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return Errors{{Path: "", Kind: KindInvalid}}
	}

	errs := make(Errors, 0, len(validationErrs))
	for _, fe := range validationErrs {
		errs = append(errs, FieldError{
			Path: fieldPath(fe.Namespace()),
			Kind: kindFromTag(fe.Tag()),
		})
	}

	return errs
}

// fieldPath turns "Organisation.registrations[0].site" into "registrations.0.site".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		namespace = rest
	}

	replacer := strings.NewReplacer("[", ".", "]", "")
	return replacer.Replace(namespace)
}

func kindFromTag(tag string) string {
	switch tag {
	case "required":
		return KindRequired
	case "isdefault":
		return KindForbidden
	case "oneof":
		return KindOption
	case "email":
		return KindEmail
	case "min", "gt", "gte":
		return KindTooSmall
	default:
		return KindInvalid
	}
}

func itemPath(collection string, index int) string {
	return collection + "." + strconv.Itoa(index)
}

func result(errs Errors) error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func duplicateIDs[T interface{ EntityID() string }](collection string, items []T) Errors {
	var errs Errors
	seen := make(map[string]struct{}, len(items))

	for i, item := range items {
		id := item.EntityID()
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			errs = append(errs, FieldError{Path: fmt.Sprintf("%s.id", itemPath(collection, i)), Kind: KindDuplicate})
			continue
		}
		seen[id] = struct{}{}
	}

	return errs
}

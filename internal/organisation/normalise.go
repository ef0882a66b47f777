package organisation

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/wolfeidau/orgstore/internal/models"
)

var (
	computedOrganisationFields = []string{"status", "statusHistory", "version", "schemaVersion", "users"}
	computedNestedFields       = []string{"status", "statusHistory"}
	nestedCollections          = []string{"registrations", "accreditations"}
)

// HasChanges compares the canonical forms of two organisations, ignoring the
// fields the repository computes itself.
func HasChanges(existing, incoming *models.Organisation) (bool, error) {
	a, err := Normalise(existing)
	if err != nil {
		return false, err
	}

	b, err := Normalise(incoming)
	if err != nil {
		return false, err
	}

	return !reflect.DeepEqual(a, b), nil
}

// Normalise returns the canonical document form of org: computed fields stripped
// at the organisation and nested levels, nulls dropped recursively.
func Normalise(org *models.Organisation) (map[string]any, error) {
	data, err := json.Marshal(org)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal organisation: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal organisation: %w", err)
	}

	for _, field := range computedOrganisationFields {
		delete(doc, field)
	}

	for _, collection := range nestedCollections {
		items, _ := doc[collection].([]any)
		for _, item := range items {
			if entity, ok := item.(map[string]any); ok {
				for _, field := range computedNestedFields {
					delete(entity, field)
				}
			}
		}
	}

	dropNulls(doc)

	return doc, nil
}

func dropNulls(v any) {
	switch node := v.(type) {
	case map[string]any:
		for key, value := range node {
			if value == nil {
				delete(node, key)
				continue
			}
			dropNulls(value)
		}
	case []any:
		for _, value := range node {
			dropNulls(value)
		}
	}
}

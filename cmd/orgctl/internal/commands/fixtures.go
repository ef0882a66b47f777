package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgstore/internal/models"
	"gopkg.in/yaml.v3"
)

// loadFixtures reads organisations from a YAML stream. Each document holds one
// organisation or a list of them; JSON files parse the same way.
func loadFixtures(path string) ([]*models.Organisation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture file: %w", err)
	}
	defer f.Close()

	return decodeFixtures(f)
}

func decodeFixtures(r io.Reader) ([]*models.Organisation, error) {
	dec := yaml.NewDecoder(r)

	var orgs []*models.Organisation
	for doc := 0; ; doc++ {
		var raw any
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document %d: %w", doc, err)
		}

		// Round trip through JSON so the model's json tags drive field names.
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to convert document %d: %w", doc, err)
		}

		if list, ok := raw.([]any); ok {
			var batch []*models.Organisation
			if err := json.Unmarshal(data, &batch); err != nil {
				return nil, fmt.Errorf("failed to decode document %d (%d items): %w", doc, len(list), err)
			}
			orgs = append(orgs, batch...)
			continue
		}

		var org models.Organisation
		if err := json.Unmarshal(data, &org); err != nil {
			return nil, fmt.Errorf("failed to decode document %d: %w", doc, err)
		}
		orgs = append(orgs, &org)
	}

	return orgs, nil
}

// assignIDs gives a UUIDv7 to the organisation and every nested item without
// an id. It reports whether anything was assigned.
func assignIDs(org *models.Organisation) (bool, error) {
	assigned := false

	next := func(id *string) error {
		if *id != "" {
			return nil
		}
		u, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate id: %w", err)
		}
		*id = u.String()
		assigned = true
		return nil
	}

	if err := next(&org.ID); err != nil {
		return false, err
	}
	for i := range org.Registrations {
		if err := next(&org.Registrations[i].ID); err != nil {
			return false, err
		}
	}
	for i := range org.Accreditations {
		if err := next(&org.Accreditations[i].ID); err != nil {
			return false, err
		}
	}

	return assigned, nil
}

package models

import (
	"encoding/json"
	"fmt"
)

// Clone returns a deep copy of v by round-tripping it through its JSON document
// form, which is also the form the stores persist.
func Clone[T any](v T) (T, error) {
	var out T

	data, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("failed to marshal for clone: %w", err)
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal clone: %w", err)
	}

	return out, nil
}

package model

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrModelNameEmpty    = "E201" // model name is required
	ErrDuplicateIndex    = "E202" // duplicate index name
	ErrIndexNoKeys       = "E203" // index must have at least one key
	ErrIndexNamesPrimary = "E204" // secondary index reuses the primary index name
	ErrXLikeWildcard     = "E205" // xlike key on a wildcard path
	ErrHiddenID          = "E206" // the id cannot be hidden
	ErrDuplicateKey      = "E207" // same path keyed twice in one index
)

// ValidationError represents a model validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled model.
// Returns all errors found (does not fail-fast).
func Validate(m *Model) []ValidationError {
	var errs []ValidationError

	// E201: name is required
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "model name is required",
			Code:    ErrModelNameEmpty,
		})
	}

	for i, field := range m.Hidden {
		// E206: results always carry their id
		if field == "id" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("hidden[%d]", i),
				Message: "the id field cannot be hidden",
				Code:    ErrHiddenID,
			})
		}
	}

	names := make(map[string]bool)
	for i, idx := range m.Indexes {
		loc := fmt.Sprintf("indexes[%d]", i)

		// E202: duplicate index name
		if names[idx.Name] {
			errs = append(errs, ValidationError{
				Field:   loc + ".name",
				Message: fmt.Sprintf("duplicate index name: %q", idx.Name),
				Code:    ErrDuplicateIndex,
			})
		}
		names[idx.Name] = true

		// E204: the primary index is named after the model
		if m.Primary && idx.Name == m.Name {
			errs = append(errs, ValidationError{
				Field:   loc + ".name",
				Message: fmt.Sprintf("index %q collides with the primary index name", idx.Name),
				Code:    ErrIndexNamesPrimary,
			})
		}

		// E203: at least one key
		if len(idx.Keys) == 0 {
			errs = append(errs, ValidationError{
				Field:   loc + ".keys",
				Message: fmt.Sprintf("index %q must have at least one key", idx.Name),
				Code:    ErrIndexNoKeys,
			})
		}

		seen := make(map[string]bool)
		for j, key := range idx.Keys {
			keyLoc := fmt.Sprintf("%s.keys[%d]", loc, j)

			// E207: a path may appear once per index
			if seen[key.Path.String()] {
				errs = append(errs, ValidationError{
					Field:   keyLoc,
					Message: fmt.Sprintf("duplicate key %q", key.Path.String()),
					Code:    ErrDuplicateKey,
				})
			}
			seen[key.Path.String()] = true

			// E205: SUFFIXES needs a single string field
			if key.Order == XLike && key.Path.HasWildcard() {
				errs = append(errs, ValidationError{
					Field:   keyLoc,
					Message: fmt.Sprintf("xlike key %q cannot traverse an array", key.Path.String()),
					Code:    ErrXLikeWildcard,
				})
			}
		}
	}

	return errs
}

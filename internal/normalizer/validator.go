package normalizer

import (
	"errors"
	"fmt"

	"regscrape/internal/models"
)

// ErrMissingColumn marks an assembly failure: a column the source promises
// never appeared in any record.
var ErrMissingColumn = errors.New("missing expected column")

// ColumnError names the column an assembly step could not find.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingColumn, e.Column)
}

func (e *ColumnError) Unwrap() error {
	return ErrMissingColumn
}

// Validator checks that extracted records carry the expected columns.
type Validator struct {
	required []string
}

// NewValidator creates a validator for the given column names.
func NewValidator(required []string) *Validator {
	return &Validator{required: required}
}

// Validate reports the first required column absent from every record.
// An empty record set is valid: a run whose fetches all failed still
// exports an empty sheet.
func (v *Validator) Validate(records []*models.Record) error {
	if len(records) == 0 {
		return nil
	}

	seen := make(map[string]bool)

	for _, r := range records {
		for _, f := range r.Fields() {
			if hasSemanticName(f.Name) {
				seen[NormalizeColumnName(f.Name)] = true
			}
		}
	}

	for _, col := range v.required {
		if !seen[NormalizeColumnName(col)] {
			return &ColumnError{Column: col}
		}
	}

	return nil
}

// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoValidProducts is returned when every product in an upload was skipped.
var ErrNoValidProducts = errors.New("no products with valid history found")

// SchemaError reports every required column missing from an upload at once.
type SchemaError struct {
	MissingColumns []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.MissingColumns, ", ")
}

// BadDate identifies one row whose Week value could not be parsed.
type BadDate struct {
	Row   int    `json:"row"`
	Value string `json:"value"`
}

// DateError reports every unparsable Week value in an upload. The whole
// upload is rejected rather than skipping rows.
type DateError struct {
	Rows []BadDate
}

func (e *DateError) Error() string {
	parts := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		parts[i] = fmt.Sprintf("row %d (%q)", r.Row, r.Value)
	}
	return "invalid dates in 'Week' column: " + strings.Join(parts, ", ")
}

// RangeError reports a horizon outside the supported range.
type RangeError struct {
	Horizon int
	Min     int
	Max     int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("horizon must be between %d and %d weeks, got %d", e.Min, e.Max, e.Horizon)
}

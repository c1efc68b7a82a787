package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFile is returned when the input has no header row.
var ErrEmptyFile = errors.New("csv file is empty")

// ValidationError describes a single rejected row. Rows that fail are skipped
// and the rest of the batch is still loaded.
type ValidationError struct {
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Reason)
	}
	return fmt.Sprintf("line %d: %s %q: %s", e.Line, e.Field, e.Value, e.Reason)
}

// FileError means the file as a whole cannot be loaded.
type FileError struct {
	MissingColumns []string
	Err            error
}

func (e *FileError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("missing required columns: %s", strings.Join(e.MissingColumns, ", "))
	}
	return fmt.Sprintf("invalid csv: %v", e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

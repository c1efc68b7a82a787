package ingest

import (
	"errors"
	"fmt"
	"io"
)

// maxReportedErrors caps the messages returned in a Report.
const maxReportedErrors = 50

// Report is the response body of a dry-run validation.
type Report struct {
	Valid                  bool     `json:"valid"`
	MissingColumns         []string `json:"missing_columns"`
	PresentOptionalColumns []string `json:"present_optional_columns"`
	ValidationErrors       []string `json:"validation_errors"`
	RowCount               int      `json:"row_count"`
	ValidRowCount          int      `json:"valid_row_count"`
	Columns                []string `json:"columns"`
	Error                  string   `json:"error,omitempty"`
}

// Validate parses r without keeping the result and reports what an upload
// of the same file would do.
func Validate(r io.Reader) Report {
	return NewLoader().Validate(r)
}

// Validate is the Loader form of the package-level Validate.
func (l *Loader) Validate(r io.Reader) Report {
	return NewReport(l.ParseCSV(r))
}

// NewReport describes the outcome of a ParseCSV call.
func NewReport(res *Result, err error) Report {
	report := Report{
		MissingColumns:         []string{},
		PresentOptionalColumns: []string{},
		ValidationErrors:       []string{},
		Columns:                []string{},
	}

	if err != nil {
		var fe *FileError
		if errors.As(err, &fe) && len(fe.MissingColumns) > 0 {
			report.MissingColumns = fe.MissingColumns
		}
		report.Error = err.Error()
		report.ValidationErrors = append(report.ValidationErrors, err.Error())
		return report
	}

	report.FromResult(res)
	return report
}

// FromResult fills the report from an already parsed batch.
func (r *Report) FromResult(res *Result) {
	r.Columns = res.Columns
	r.RowCount = res.RowCount
	r.ValidRowCount = len(res.Transactions)
	r.PresentOptionalColumns = presentOptional(res.Columns)
	r.ValidationErrors = r.ValidationErrors[:0]
	for i, e := range res.Errors {
		if i == maxReportedErrors {
			r.ValidationErrors = append(r.ValidationErrors,
				fmt.Sprintf("... and %d more", len(res.Errors)-maxReportedErrors))
			break
		}
		r.ValidationErrors = append(r.ValidationErrors, e.Error())
	}
	r.Valid = len(r.MissingColumns) == 0 && len(res.Errors) == 0
}

func presentOptional(columns []string) []string {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	out := []string{}
	for _, c := range OptionalColumns {
		if have[c] {
			out = append(out, c)
		}
	}
	return out
}

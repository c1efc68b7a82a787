// Package ingest turns expense CSV exports into normalized transactions.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
	"github.com/google/uuid"
)

// RequiredColumns must be present in every upload. "name" is accepted in
// place of "description".
var RequiredColumns = []string{"date", "amount", "description"}

// OptionalColumns are recognized when present.
var OptionalColumns = []string{
	"category", "parent category", "merchant", "tags", "notes",
	"id", "type", "status", "account", "excluded", "recurring",
}

// Record is one data row keyed by normalized column name.
type Record struct {
	Line   int
	Fields map[string]string
}

// Get returns the first non-empty value among keys.
func (r Record) Get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.Fields[k]); v != "" && !strings.EqualFold(v, "nan") {
			return v
		}
	}
	return ""
}

// Result is the outcome of loading a batch.
type Result struct {
	Transactions []domain.Transaction
	Errors       []*ValidationError
	Columns      []string
	RowCount     int
}

// Loader converts records into transactions.
type Loader struct {
	Taxonomy *taxonomy.Taxonomy
	NewID    func() string
}

// NewLoader returns a loader over the default taxonomy that assigns random
// UUIDs to rows without an id column.
func NewLoader() *Loader {
	return &Loader{
		Taxonomy: taxonomy.Default(),
		NewID:    func() string { return uuid.New().String() },
	}
}

// ParseCSV reads a CSV with the default loader.
func ParseCSV(r io.Reader) (*Result, error) {
	return NewLoader().ParseCSV(r)
}

// NormalizeColumn lower-cases a header and folds underscores to spaces so
// "Parent_Category" and "parent category" are the same column.
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ReplaceAll(strings.TrimSpace(name), "_", " ")
	return strings.ToLower(name)
}

// MissingColumns reports required columns absent from columns.
func MissingColumns(columns []string) []string {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[NormalizeColumn(c)] = true
	}
	var missing []string
	for _, req := range RequiredColumns {
		if have[req] || (req == "description" && have["name"]) {
			continue
		}
		missing = append(missing, req)
	}
	return missing
}

// ParseCSV reads the header, checks required columns and loads every row.
// Bad rows are reported in Result.Errors; a *FileError is returned only when
// the file cannot be loaded at all.
func (l *Loader) ParseCSV(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &FileError{Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, &FileError{Err: err}
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = NormalizeColumn(h)
	}
	if missing := MissingColumns(columns); len(missing) > 0 {
		return nil, &FileError{MissingColumns: missing}
	}

	var records []Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &FileError{Err: fmt.Errorf("line %d: %w", line, err)}
		}
		if blank(row) {
			continue
		}
		fields := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				fields[col] = row[i]
			}
		}
		records = append(records, Record{Line: line, Fields: fields})
	}

	txs, rowErrs := l.Load(records)
	return &Result{
		Transactions: txs,
		Errors:       rowErrs,
		Columns:      columns,
		RowCount:     len(records),
	}, nil
}

// Load converts records in order, skipping and reporting rows that fail.
func (l *Loader) Load(records []Record) ([]domain.Transaction, []*ValidationError) {
	txs := make([]domain.Transaction, 0, len(records))
	var rowErrs []*ValidationError
	for _, rec := range records {
		tx, err := l.toTransaction(rec)
		if err != nil {
			rowErrs = append(rowErrs, err)
			continue
		}
		txs = append(txs, tx)
	}
	return txs, rowErrs
}

func (l *Loader) toTransaction(rec Record) (domain.Transaction, *ValidationError) {
	rawDate := rec.Get("date")
	date, err := ParseDate(rawDate)
	if err != nil {
		return domain.Transaction{}, rowError(rec.Line, "date", rawDate, err)
	}

	rawAmount := rec.Get("amount")
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return domain.Transaction{}, rowError(rec.Line, "amount", rawAmount, err)
	}

	description := rec.Get("description", "name")
	if description == "" {
		return domain.Transaction{}, rowError(rec.Line, "description", "", errEmpty)
	}

	rawCategory := rec.Get("category", "parent category")
	category := l.Taxonomy.Map(rawCategory, description)

	tags := ParseTags(rec.Get("tags"))
	status := rec.Get("status")
	if status != "" {
		tags = append(tags, domain.StatusTagPrefix+strings.ToLower(status))
	}

	id := rec.Get("id")
	if id == "" {
		id = l.NewID()
	}

	return domain.Transaction{
		ID:             id,
		Date:           date,
		Amount:         amount.InexactFloat64(),
		Description:    description,
		RawCategory:    rawCategory,
		Category:       category,
		ParentCategory: l.Taxonomy.ParentOf(category),
		Merchant:       rec.Get("merchant", "name"),
		Tags:           tags,
		Notes:          rec.Get("notes", "note"),
		Account:        rec.Get("account"),
		Status:         status,
		Type:           domain.ParseTransactionType(rec.Get("type")),
		Excluded:       parseBool(rec.Get("excluded")),
		Recurring:      rec.Get("recurring"),
	}, nil
}

func rowError(line int, field, value string, err error) *ValidationError {
	reason := err.Error()
	if errors.Is(err, errEmpty) {
		reason = "required value is missing"
	}
	return &ValidationError{Line: line, Field: field, Value: value, Reason: reason}
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

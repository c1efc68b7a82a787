package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
)

func testLoader() *Loader {
	n := 0
	return &Loader{
		Taxonomy: taxonomy.Default(),
		NewID: func() string {
			n++
			return fmt.Sprintf("gen-%d", n)
		},
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2024-08-15", time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), false},
		{"08/15/2024", time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), false},
		// US layout wins when both readings are valid
		{"03/04/2024", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), false},
		{"15/08/2024", time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), false},
		{"2024-08-15 13:45:00", time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), false},
		{"2024-08-15T13:45:00", time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"yesterday", time.Time{}, true},
		{"2024-13-45", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1500", "1500", false},
		{"$1,500.00", "1500", false},
		{" 89.99 ", "89.99", false},
		{"-200.00", "-200", false},
		{"(45.10)", "-45.1", false},
		{"€12", "12", false},
		{"", "", true},
		{"$", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got.String(), tt.want)
			}
		})
	}
}

func TestParseTags(t *testing.T) {
	got := ParseTags("Kellogg, food;study | food ,,")
	want := []string{"kellogg", "food", "study"}
	if len(got) != len(want) {
		t.Fatalf("ParseTags() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseTags()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if got := ParseTags(""); len(got) != 0 {
		t.Errorf("ParseTags(\"\") = %v, want empty", got)
	}
}

func TestParseCSV(t *testing.T) {
	input := "Date,Amount,Description,Category,Merchant,Tags,Status,Type,Excluded\n" +
		"2024-08-15,\"$1,500.00\",Fall Tuition,tuition,University,\"kellogg,tuition\",Posted,regular,\n" +
		"not-a-date,10,Broken row,food,Cafe,,,,\n" +
		"2024-08-20,89.99,Strategic Management Textbook,,Bookstore,,,,\n" +
		",,,,,,,,\n" +
		"2024-09-01,-200.00,Transfer,,,,,internal transfer,true\n" +
		"2024-09-02,abc,Bad amount,,,,,,\n" +
		"2024-09-03,12,,,,,,,\n"

	res, err := testLoader().ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}

	if res.RowCount != 6 {
		t.Errorf("RowCount = %d, want 6 (blank rows skipped)", res.RowCount)
	}
	if len(res.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(res.Transactions))
	}
	if len(res.Errors) != 3 {
		t.Fatalf("got %d row errors, want 3: %v", len(res.Errors), res.Errors)
	}

	wantFields := []string{"date", "amount", "description"}
	for i, e := range res.Errors {
		if e.Field != wantFields[i] {
			t.Errorf("error %d field = %q, want %q", i, e.Field, wantFields[i])
		}
	}
	if res.Errors[0].Line != 3 {
		t.Errorf("first error line = %d, want 3", res.Errors[0].Line)
	}

	first := res.Transactions[0]
	if first.Amount != 1500 {
		t.Errorf("Amount = %v, want 1500", first.Amount)
	}
	if first.Category != "Tuition & Fees" || first.ParentCategory != "Education" {
		t.Errorf("Category = %q/%q", first.Category, first.ParentCategory)
	}
	if !slices.Contains(first.Tags, "status:posted") || !first.HasTag("kellogg") {
		t.Errorf("Tags = %v", first.Tags)
	}
	if first.ID != "gen-1" {
		t.Errorf("ID = %q, want generated id", first.ID)
	}

	// file order preserved
	if res.Transactions[1].Description != "Strategic Management Textbook" {
		t.Errorf("second transaction = %q", res.Transactions[1].Description)
	}
	if res.Transactions[1].Category != "Books & Supplies" {
		t.Errorf("description fallback category = %q", res.Transactions[1].Category)
	}

	transfer := res.Transactions[2]
	if transfer.Type != domain.TypeInternalTransfer || !transfer.Excluded {
		t.Errorf("transfer = %+v", transfer)
	}
	if transfer.Category != taxonomy.Other {
		t.Errorf("transfer category = %q, want Other", transfer.Category)
	}
}

func TestParseCSVNameAlias(t *testing.T) {
	input := "date,amount,name,parent_category,id\n2024-10-01,30,Uber ride,,abc-1\n"

	res, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("got %d transactions", len(res.Transactions))
	}
	tx := res.Transactions[0]
	if tx.Description != "Uber ride" || tx.Merchant != "Uber ride" {
		t.Errorf("name alias not applied: %+v", tx)
	}
	if tx.ID != "abc-1" {
		t.Errorf("ID = %q, want abc-1", tx.ID)
	}
	if tx.Category != "Transportation" {
		t.Errorf("Category = %q", tx.Category)
	}
}

func TestParseCSVFileErrors(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantMissing []string
		wantIs      error
	}{
		{"empty", "", nil, ErrEmptyFile},
		{"missing columns", "date,category\n2024-01-01,food\n", []string{"amount", "description"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			var fe *FileError
			if !errors.As(err, &fe) {
				t.Fatalf("ParseCSV() error = %v, want *FileError", err)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error = %v, want %v", err, tt.wantIs)
			}
			if strings.Join(fe.MissingColumns, ",") != strings.Join(tt.wantMissing, ",") {
				t.Errorf("MissingColumns = %v, want %v", fe.MissingColumns, tt.wantMissing)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	good := Validate(bytes.NewReader(SampleCSV()))
	if !good.Valid {
		t.Errorf("sample should validate: %+v", good)
	}
	if good.RowCount != 5 || good.ValidRowCount != 5 {
		t.Errorf("RowCount = %d/%d, want 5/5", good.RowCount, good.ValidRowCount)
	}
	if len(good.PresentOptionalColumns) != 4 {
		t.Errorf("PresentOptionalColumns = %v", good.PresentOptionalColumns)
	}

	bad := Validate(strings.NewReader("date,amount,description\nnope,1,x\n2024-01-01,2,y\n"))
	if bad.Valid {
		t.Error("file with a bad row should not be valid")
	}
	if len(bad.ValidationErrors) != 1 || !strings.Contains(bad.ValidationErrors[0], "line 2") {
		t.Errorf("ValidationErrors = %v", bad.ValidationErrors)
	}

	missing := Validate(strings.NewReader("foo,bar\n1,2\n"))
	if missing.Valid || len(missing.MissingColumns) != 3 {
		t.Errorf("missing = %+v", missing)
	}
}

func TestSampleCSVLoadsCleanly(t *testing.T) {
	res, err := ParseCSV(bytes.NewReader(SampleCSV()))
	if err != nil {
		t.Fatalf("ParseCSV(sample) error = %v", err)
	}
	if len(res.Errors) != 0 || len(res.Transactions) != 5 {
		t.Fatalf("sample: %d txs, %d errors", len(res.Transactions), len(res.Errors))
	}
	want := []string{"Tuition & Fees", "Books & Supplies", "Networking", "Food & Dining", "Housing"}
	for i, tx := range res.Transactions {
		if tx.Category != want[i] {
			t.Errorf("row %d category = %q, want %q", i, tx.Category, want[i])
		}
	}
}

package query

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixture() []domain.Transaction {
	mk := func(id string, when time.Time, amount float64, desc, merchant, category string, tags ...string) domain.Transaction {
		return domain.Transaction{
			ID: id, Date: when, Amount: amount, Description: desc, Merchant: merchant,
			Category: category, ParentCategory: taxonomy.Default().ParentOf(category),
			Tags: tags, Type: domain.TypeRegular,
		}
	}
	txs := []domain.Transaction{
		mk("1", date(2024, 8, 15), 1500, "Fall Tuition", "University", "Tuition & Fees", "kellogg"),
		mk("2", date(2024, 8, 20), 89.99, "Strategy Textbook", "Campus Books", "Books & Supplies", "kellogg", "textbook"),
		mk("3", date(2024, 9, 5), 45, "Finance Club mixer", "Finance Club", "Networking", "networking"),
		mk("4", date(2024, 9, 10), 25.5, "Lunch", "Campus Cafe", "Food & Dining", "food", "status:cleared"),
		mk("5", date(2024, 9, 15), 120, "Monthly rent", "Apartment Complex", "Housing"),
		mk("6", date(2024, 9, 30), -200, "Transfer to savings", "Bank", taxonomy.Other),
	}
	txs[5].Type = domain.TypeInternalTransfer
	return txs
}

func ids(txs []domain.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	floor := 50.0
	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"no criteria", Criteria{}, []string{"1", "2", "3", "4", "5", "6"}},
		{"all selectors", Criteria{Category: "all", Tag: "ALL"}, []string{"1", "2", "3", "4", "5", "6"}},
		{"search description", Criteria{SearchText: "TEXTBOOK"}, []string{"2"}},
		{"search merchant", Criteria{SearchText: "campus"}, []string{"2", "4"}},
		{"exact category", Criteria{Category: "Housing"}, []string{"5"}},
		{"parent education", Criteria{Category: "parent:Education"}, []string{"1", "2"}},
		{"parent case insensitive", Criteria{Category: "Parent:living"}, []string{"4", "5"}},
		{"unknown parent", Criteria{Category: "parent:Nope"}, []string{}},
		{"tag", Criteria{Tag: "kellogg"}, []string{"1", "2"}},
		{"status marker is not a tag", Criteria{Tag: "status:cleared"}, []string{}},
		{"date range inclusive", Criteria{Start: date(2024, 8, 20), End: date(2024, 9, 10)}, []string{"2", "3", "4"}},
		{"open start", Criteria{End: date(2024, 8, 15)}, []string{"1"}},
		{"end ignores time of day", Criteria{Start: date(2024, 9, 30), End: date(2024, 9, 30).Add(3 * time.Hour)}, []string{"6"}},
		{"combined", Criteria{Category: "parent:Education", Tag: "textbook", SearchText: "strategy"}, []string{"2"}},
		{"types", Criteria{Types: []domain.TransactionType{domain.TypeInternalTransfer}}, []string{"6"}},
		{"min absolute amount", Criteria{MinAmount: &floor}, []string{"1", "2", "5", "6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(fixture(), tt.c))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterParentMatchesExactlyDeclaredChildren(t *testing.T) {
	txs := fixture()
	got := Filter(txs, Criteria{Category: "parent:Education"})
	children := taxonomy.Default().Children("Education")

	for _, tx := range got {
		found := false
		for _, c := range children {
			if tx.Category == c {
				found = true
			}
		}
		if !found {
			t.Errorf("transaction %s in %q is not under Education", tx.ID, tx.Category)
		}
	}
	for _, tx := range txs {
		if taxonomy.Default().InParent(tx.Category, "Education") {
			inResult := false
			for _, g := range got {
				if g.ID == tx.ID {
					inResult = true
				}
			}
			if !inResult {
				t.Errorf("transaction %s missing from parent:Education", tx.ID)
			}
		}
	}
}

func TestFilterIsIdempotentAndHidesExcluded(t *testing.T) {
	txs := fixture()
	txs[2].Excluded = true
	c := Criteria{SearchText: "a"}

	once := Filter(txs, c)
	twice := Filter(once, c)
	if !reflect.DeepEqual(ids(once), ids(twice)) {
		t.Errorf("not idempotent: %v vs %v", ids(once), ids(twice))
	}
	for _, tx := range once {
		if tx.ID == "3" {
			t.Error("excluded transaction returned")
		}
	}

	c.IncludeExcluded = true
	withExcluded := Filter(txs, c)
	if len(withExcluded) != len(once)+1 {
		t.Errorf("IncludeExcluded returned %d, want %d", len(withExcluded), len(once)+1)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Criteria
		wantErr bool
	}{
		{"no selector", Criteria{}, false},
		{"all", Criteria{Category: "ALL"}, false},
		{"declared category", Criteria{Category: "Housing"}, false},
		{"declared parent", Criteria{Category: "parent:education"}, false},
		{"unknown category", Criteria{Category: "Yachts"}, true},
		{"category case differs", Criteria{Category: "housing"}, true},
		{"unknown parent", Criteria{Category: "parent:Nope"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate(taxonomy.Default())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrUnknownCategory) {
				t.Errorf("Validate() error = %v, want ErrUnknownCategory", err)
			}
		})
	}
}

func TestParseCriteria(t *testing.T) {
	v := url.Values{
		"search":            {" rent "},
		"category":          {"parent:Living"},
		"tag":               {"food"},
		"start_date":        {"2024-08-01"},
		"end_date":          {"2024-09-30"},
		"include_excluded":  {"true"},
		"transaction_types": {"regular, income"},
		"min_amount":        {"10.5"},
	}
	c, err := ParseCriteria(v)
	if err != nil {
		t.Fatalf("ParseCriteria() error = %v", err)
	}
	if c.SearchText != "rent" || c.Category != "parent:Living" || c.Tag != "food" {
		t.Errorf("text fields = %+v", c)
	}
	if !c.Start.Equal(date(2024, 8, 1)) || !c.End.Equal(date(2024, 9, 30)) {
		t.Errorf("dates = %v..%v", c.Start, c.End)
	}
	if !c.IncludeExcluded || len(c.Types) != 2 || c.Types[1] != domain.TypeIncome {
		t.Errorf("flags = %+v", c)
	}
	if c.MinAmount == nil || *c.MinAmount != 10.5 || c.MaxAmount != nil {
		t.Errorf("amounts = %v / %v", c.MinAmount, c.MaxAmount)
	}

	bad := []url.Values{
		{"start_date": {"08/01/2024"}},
		{"end_date": {"tomorrow"}},
		{"start_date": {"2024-09-01"}, "end_date": {"2024-08-01"}},
		{"include_excluded": {"maybe"}},
		{"max_amount": {"lots"}},
	}
	for _, v := range bad {
		if _, err := ParseCriteria(v); err == nil {
			t.Errorf("ParseCriteria(%v) expected error", v)
		}
	}
}

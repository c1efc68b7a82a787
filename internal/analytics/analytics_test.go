package analytics

import (
	"math"
	"reflect"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(id string, when time.Time, amount float64, category string, typ domain.TransactionType, tags ...string) domain.Transaction {
	return domain.Transaction{
		ID: id, Date: when, Amount: amount, Description: id, Merchant: id + " Inc",
		Category: category, Type: typ, Tags: tags,
	}
}

func TestSummarizeScenario(t *testing.T) {
	txs := []domain.Transaction{
		tx("tuition", day(2024, 8, 15), 1500.00, "Tuition & Fees", domain.TypeRegular),
		tx("textbook", day(2024, 8, 20), 89.99, "Books & Supplies", domain.TypeRegular),
		tx("transfer", day(2024, 9, 1), -200.00, taxonomy.Other, domain.TypeInternalTransfer),
	}

	s := Summarize(txs)

	if s.TotalAmount != 1589.99 {
		t.Errorf("TotalAmount = %v, want 1589.99", s.TotalAmount)
	}
	if s.TransactionCount != 3 {
		t.Errorf("TransactionCount = %d, want 3", s.TransactionCount)
	}
	if s.QualifyingCount != 2 {
		t.Errorf("QualifyingCount = %d, want 2", s.QualifyingCount)
	}
	if s.AverageAmount != 795.0 {
		t.Errorf("AverageAmount = %v, want 795", s.AverageAmount)
	}
	want := map[string]float64{"Tuition & Fees": 1500.00, "Books & Supplies": 89.99}
	if !reflect.DeepEqual(s.CategoryBreakdown, want) {
		t.Errorf("CategoryBreakdown = %v, want %v", s.CategoryBreakdown, want)
	}
	if s.TransferCount != 1 || s.RegularCount != 2 {
		t.Errorf("counts = regular %d transfer %d", s.RegularCount, s.TransferCount)
	}
	if len(s.MonthlyTrends) != 1 || s.MonthlyTrends[0].Month != "2024-08" {
		t.Errorf("MonthlyTrends = %+v", s.MonthlyTrends)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalAmount != 0 || s.AverageAmount != 0 || s.TransactionCount != 0 {
		t.Errorf("empty summary = %+v", s)
	}
	if s.CategoryBreakdown == nil || s.MonthlyTrends == nil || s.TopMerchants == nil {
		t.Error("empty summary should have non-nil collections")
	}

	onlyRefunds := Summarize([]domain.Transaction{
		tx("refund", day(2024, 1, 1), -20, "Food & Dining", domain.TypeRegular),
	})
	if onlyRefunds.AverageAmount != 0 || onlyRefunds.TransactionCount != 1 {
		t.Errorf("refund-only summary = %+v", onlyRefunds)
	}
}

func TestMonthlyTrendsChronological(t *testing.T) {
	txs := []domain.Transaction{
		tx("a", day(2025, 1, 3), 10, "Housing", domain.TypeRegular),
		tx("b", day(2024, 12, 31), 20, "Housing", domain.TypeRegular),
		tx("c", day(2024, 2, 1), 30, "Housing", domain.TypeRegular),
		tx("d", day(2024, 12, 5), 5, "Housing", domain.TypeRegular),
		tx("salary", day(2024, 12, 1), 1000, taxonomy.Other, domain.TypeIncome),
		tx("bonus", day(2024, 6, 1), 500, taxonomy.Other, domain.TypeIncome),
	}

	trends := Summarize(txs).MonthlyTrends
	var months []string
	for _, m := range trends {
		months = append(months, m.Month)
		if m.NetAmount != m.RegularAmount {
			t.Errorf("%s: net %v != regular %v", m.Month, m.NetAmount, m.RegularAmount)
		}
	}
	if !reflect.DeepEqual(months, []string{"2024-02", "2024-12", "2025-01"}) {
		t.Fatalf("months = %v", months)
	}

	dec := trends[1]
	if dec.RegularAmount != 25 || dec.TransactionCount != 2 {
		t.Errorf("2024-12 = %+v", dec)
	}
	if dec.IncomeAmount != 1000 {
		t.Errorf("2024-12 income = %v, want 1000", dec.IncomeAmount)
	}
	for _, m := range trends {
		if m.Month == "2024-06" {
			t.Error("income-only month must not create a bucket")
		}
	}
}

func TestTopMerchantsAndVelocity(t *testing.T) {
	txs := []domain.Transaction{
		tx("a", day(2024, 1, 1), 70, "Food & Dining", domain.TypeRegular),
		tx("b", day(2024, 1, 7), 70, "Food & Dining", domain.TypeRegular),
		tx("c", day(2024, 1, 4), 10, "Food & Dining", domain.TypeIncome),
	}
	txs[1].Merchant = ""

	s := Summarize(txs)
	if len(s.TopMerchants) != 2 {
		t.Fatalf("TopMerchants = %+v", s.TopMerchants)
	}
	if s.TopMerchants[0].Merchant != "Unknown" || s.TopMerchants[1].Merchant != "a Inc" {
		t.Errorf("ties should sort by name: %+v", s.TopMerchants)
	}
	// 140 over 7 days
	if s.SpendingVelocity.Daily != 20 || s.SpendingVelocity.Weekly != 140 || s.SpendingVelocity.Monthly != 600 {
		t.Errorf("SpendingVelocity = %+v", s.SpendingVelocity)
	}
}

func TestBreakdownByTag(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", day(2024, 8, 1), 100, "Tuition & Fees", domain.TypeRegular, "kellogg"),
		tx("2", day(2024, 8, 2), 33.33, "Food & Dining", domain.TypeRegular, "kellogg", "food"),
		tx("3", day(2024, 8, 3), 33.33, "Networking", domain.TypeRegular, "KELLOGG"),
		tx("4", day(2024, 8, 4), 33.34, "Food & Dining", domain.TypeRegular, "kellogg"),
		tx("5", day(2024, 8, 5), 999, "Travel", domain.TypeIncome, "kellogg"),
		tx("6", day(2024, 8, 6), 50, "Travel", domain.TypeRegular),
	}

	b := BreakdownByTag(txs, " Kellogg ")
	if b.Tag != "kellogg" || b.TotalAmount != 200 || b.TransactionCount != 4 {
		t.Errorf("breakdown header = %+v", b)
	}
	var cats []string
	pct := 0.0
	for _, p := range b.Points {
		cats = append(cats, p.Category)
		pct += p.Percentage
	}
	if !reflect.DeepEqual(cats, []string{"Tuition & Fees", "Food & Dining", "Networking"}) {
		t.Errorf("categories = %v", cats)
	}
	if math.Abs(pct-100) > 0.1 {
		t.Errorf("percentages sum to %v", pct)
	}
	if b.Points[0].Percentage != 50 {
		t.Errorf("tuition share = %v, want 50", b.Points[0].Percentage)
	}

	empty := BreakdownByTag(txs, "missing")
	if empty.TotalAmount != 0 || len(empty.Points) != 0 {
		t.Errorf("unknown tag breakdown = %+v", empty)
	}
}

func TestAvailableTags(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", day(2024, 8, 1), 100, "Tuition & Fees", domain.TypeRegular, "kellogg", "status:posted"),
		tx("2", day(2024, 8, 2), 40, "Food & Dining", domain.TypeRegular, "kellogg", "food"),
		tx("3", day(2024, 8, 3), 40, "Food & Dining", domain.TypeRegular, "social"),
		tx("4", day(2024, 8, 4), 500, taxonomy.Other, domain.TypeIncome, "social"),
	}

	stats := AvailableTags(txs)
	if got := TagNames(stats); !reflect.DeepEqual(got, []string{"kellogg", "food", "social"}) {
		t.Fatalf("tags = %v", got)
	}
	k := stats[0]
	if k.TotalAmount != 140 || k.TransactionCount != 2 || k.CategoryCount != 2 {
		t.Errorf("kellogg = %+v", k)
	}
	social := stats[2]
	if social.TotalAmount != 40 || social.TransactionCount != 2 || social.CategoryCount != 2 {
		t.Errorf("social = %+v", social)
	}
}

func TestHierarchy(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", day(2024, 8, 1), 100, "Tuition & Fees", domain.TypeRegular),
		tx("2", day(2024, 8, 2), 10, "Books & Supplies", domain.TypeRegular),
		tx("3", day(2024, 8, 3), 10, "Books & Supplies", domain.TypeRegular),
		tx("4", day(2024, 8, 4), 20, "Housing", domain.TypeRegular),
	}

	idx := Hierarchy(taxonomy.Default(), txs)
	if !reflect.DeepEqual(idx.ParentCategories, []string{"Education", "Living"}) {
		t.Errorf("ParentCategories = %v", idx.ParentCategories)
	}
	if idx.Hierarchy["Education"]["Books & Supplies"] != 2 || idx.Hierarchy["Living"]["Housing"] != 1 {
		t.Errorf("Hierarchy = %v", idx.Hierarchy)
	}
	if idx.CategoryCounts["Tuition & Fees"] != 1 || len(idx.Categories) != 3 {
		t.Errorf("counts = %v categories = %v", idx.CategoryCounts, idx.Categories)
	}

	stats := CategoryStats(taxonomy.Default(), txs)
	if stats[0].Name != "Tuition & Fees" || stats[0].Parent != "Education" || stats[0].Color == "" {
		t.Errorf("CategoryStats[0] = %+v", stats[0])
	}
}

func TestInsights(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", day(2024, 8, 1), 1200, "Tuition & Fees", domain.TypeRegular, "kellogg", "tuition"),
		tx("2", day(2024, 9, 2), 60, "Food & Dining", domain.TypeRegular, "kellogg", "social"),
		tx("3", day(2024, 9, 3), 40, "Food & Dining", domain.TypeRegular, "kellogg"),
		tx("4", day(2024, 9, 4), 900, taxonomy.Other, domain.TypeIncome, "kellogg", "refund"),
	}

	got := Insights(txs)
	var cats []string
	for _, in := range got {
		cats = append(cats, in.Category)
	}
	want := []string{"mba_total", "tuition", "social", "general_activities", "mba_trends"}
	if !reflect.DeepEqual(cats, want) {
		t.Fatalf("insight categories = %v, want %v", cats, want)
	}
	if got[0].DataSupport["total_amount"] != 1300.0 {
		t.Errorf("total = %v", got[0].DataSupport["total_amount"])
	}
	if got[1].Priority != "high" || got[2].Priority != "low" {
		t.Errorf("priorities = %s, %s", got[1].Priority, got[2].Priority)
	}
	if got[4].DataSupport["max_month"] != "2024-08" {
		t.Errorf("max month = %v", got[4].DataSupport["max_month"])
	}
}

func TestInsightsFallback(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", day(2024, 8, 1), 1500, "Tuition & Fees", domain.TypeRegular),
	}
	got := Insights(txs)
	if len(got) != 1 || got[0].Category != "tuition" {
		t.Errorf("fallback insights = %+v", got)
	}
	if len(Insights(nil)) != 0 {
		t.Error("no data should produce no insights")
	}
}

func TestInsightTitlesKeepMultibyteTags(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", day(2024, 10, 1), 80, "Travel", domain.TypeRegular, "kellogg", "écoles_trip"),
	}
	got := Insights(txs)
	if len(got) < 2 {
		t.Fatalf("insights = %+v", got)
	}
	if got[1].Title != "MBA Écoles Trip Activity" {
		t.Errorf("Title = %q, want %q", got[1].Title, "MBA Écoles Trip Activity")
	}
	if !utf8.ValidString(got[1].Title) {
		t.Errorf("Title %q is not valid UTF-8", got[1].Title)
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"general_activities", "General Activities"},
		{"écoles trip", "Écoles Trip"},
		{"über_social", "Über Social"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := titleCase(tt.in); got != tt.want {
				t.Errorf("titleCase(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithTag(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", day(2024, 8, 1), 10, "Food & Dining", domain.TypeRegular, "Kellogg"),
		tx("2", day(2024, 8, 2), 20, "Food & Dining", domain.TypeRegular, "social", "status:posted"),
	}
	if got := WithTag(txs, "kellogg"); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("WithTag(kellogg) = %+v", got)
	}
	if got := WithTag(txs, "status:posted"); len(got) != 0 {
		t.Errorf("WithTag(status:posted) = %+v, want none", got)
	}
}

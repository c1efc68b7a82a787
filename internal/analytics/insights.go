package analytics

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/shopspring/decimal"
)

// ProgramTag marks transactions that belong to the MBA program.
const ProgramTag = "kellogg"

const generalGroup = "general_activities"

// Insight is one MBA-specific observation with supporting numbers.
type Insight struct {
	Category        string         `json:"category"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Recommendation  string         `json:"recommendation"`
	DataSupport     map[string]any `json:"data_support"`
	ConfidenceScore float64        `json:"confidence_score"`
	Priority        string         `json:"priority"`
}

// Insights reports program spending grouped by the first non-program tag of
// each regular program transaction. Without program-tagged rows it falls back
// to a tuition overview.
func Insights(txs []domain.Transaction) []Insight {
	var regular []domain.Transaction
	for _, tx := range txs {
		if tx.Type == domain.TypeRegular {
			regular = append(regular, tx)
		}
	}
	program := WithTag(regular, ProgramTag)
	if len(program) == 0 {
		return tuitionInsights(regular)
	}

	total := sum(program)
	insights := []Insight{{
		Category:        "mba_total",
		Title:           "Total MBA Investment",
		Description:     fmt.Sprintf("Total Kellogg-related spending: $%s", total.StringFixed(2)),
		Recommendation:  "Track your MBA investment to ensure you're getting value for your money",
		DataSupport:     map[string]any{"total_amount": money(total), "transaction_count": len(program)},
		ConfidenceScore: 0.95,
		Priority:        "high",
	}}

	groups, order := groupByTag(program)
	for _, name := range order {
		group := groups[name]
		groupTotal := sum(group)
		avg := groupTotal.Div(decimal.NewFromInt(int64(len(group))))
		minDate, maxDate := group[0].Date, group[0].Date
		for _, tx := range group[1:] {
			if tx.Date.Before(minDate) {
				minDate = tx.Date
			}
			if tx.Date.After(maxDate) {
				maxDate = tx.Date
			}
		}
		dateRange := minDate.Format(domain.DateLayout) + " to " + maxDate.Format(domain.DateLayout)
		priority, confidence := rank(money(groupTotal), len(group))

		insights = append(insights, Insight{
			Category: name,
			Title:    fmt.Sprintf("MBA %s Activity", titleCase(name)),
			Description: fmt.Sprintf("Total spent on %s: $%s ($%s avg per transaction) from %s",
				name, groupTotal.StringFixed(2), avg.StringFixed(2), dateRange),
			Recommendation: fmt.Sprintf("Monitor your %s spending to ensure it aligns with your MBA goals and provides good value", name),
			DataSupport: map[string]any{
				"total_amount":      money(groupTotal),
				"avg_amount":        money(avg),
				"transaction_count": len(group),
				"date_range":        dateRange,
				"min_date":          minDate.Format(domain.DateLayout),
				"max_date":          maxDate.Format(domain.DateLayout),
			},
			ConfidenceScore: confidence,
			Priority:        priority,
		})
	}

	if trend, ok := monthlyProgramTrend(program); ok {
		insights = append(insights, trend)
	}
	return insights
}

func groupByTag(txs []domain.Transaction) (map[string][]domain.Transaction, []string) {
	groups := map[string][]domain.Transaction{}
	var order []string
	var general []domain.Transaction
	for _, tx := range txs {
		name := ""
		for _, tag := range tx.PublicTags() {
			if !strings.EqualFold(tag, ProgramTag) {
				name = strings.ToLower(tag)
				break
			}
		}
		if name == "" {
			general = append(general, tx)
			continue
		}
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], tx)
	}
	if len(general) > 0 {
		groups[generalGroup] = general
		order = append(order, generalGroup)
	}
	return groups, order
}

func rank(total float64, count int) (string, float64) {
	switch {
	case total > 1000 || count > 5:
		return "high", 0.9
	case total > 500 || count > 3:
		return "medium", 0.8
	default:
		return "low", 0.7
	}
}

func monthlyProgramTrend(txs []domain.Transaction) (Insight, bool) {
	months := map[string]decimal.Decimal{}
	for _, tx := range txs {
		months[tx.MonthKey()] = months[tx.MonthKey()].Add(dec(tx.Amount))
	}
	if len(months) < 2 {
		return Insight{}, false
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := decimal.Zero
	maxKey := keys[0]
	for _, k := range keys {
		total = total.Add(months[k])
		if months[k].GreaterThan(months[maxKey]) {
			maxKey = k
		}
	}
	avg := total.Div(decimal.NewFromInt(int64(len(keys))))

	return Insight{
		Category: "mba_trends",
		Title:    "MBA Spending Trends",
		Description: fmt.Sprintf("Average monthly MBA spending: $%s. Highest month: %s ($%s)",
			avg.StringFixed(2), maxKey, months[maxKey].StringFixed(2)),
		Recommendation:  "Consider spreading MBA expenses more evenly across months to manage cash flow",
		DataSupport:     map[string]any{"avg_monthly": money(avg), "max_month": maxKey, "max_amount": money(months[maxKey])},
		ConfidenceScore: 0.8,
		Priority:        "medium",
	}, true
}

func tuitionInsights(regular []domain.Transaction) []Insight {
	var tuition []domain.Transaction
	for _, tx := range regular {
		if tx.Category == "Tuition & Fees" {
			tuition = append(tuition, tx)
		}
	}
	if len(tuition) == 0 {
		return []Insight{}
	}
	total := sum(tuition)
	return []Insight{{
		Category:        "tuition",
		Title:           "Tuition Investment Analysis",
		Description:     fmt.Sprintf("Total tuition investment: $%s", total.StringFixed(2)),
		Recommendation:  "Compare tuition paid out of pocket against loans and scholarships to plan the remaining terms",
		DataSupport:     map[string]any{"total_amount": money(total), "payment_count": len(tuition)},
		ConfidenceScore: 0.9,
		Priority:        "high",
	}}
}

func sum(txs []domain.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(dec(tx.Amount))
	}
	return total
}

func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

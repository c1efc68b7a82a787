package analytics

import (
	"sort"
	"strings"

	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/shopspring/decimal"
)

// TagBreakdown splits the qualifying spend of one tag across categories.
type TagBreakdown struct {
	Tag              string          `json:"tag"`
	TotalAmount      float64         `json:"total_amount"`
	TransactionCount int             `json:"transaction_count"`
	Points           []CategoryShare `json:"data_points"`
}

// CategoryShare is one category's part of a tag's spend.
type CategoryShare struct {
	Category         string  `json:"category"`
	Amount           float64 `json:"amount"`
	Percentage       float64 `json:"percentage"`
	TransactionCount int     `json:"transaction_count"`
}

// TagStat summarizes one tag for tag pickers.
type TagStat struct {
	Tag              string   `json:"tag"`
	TotalAmount      float64  `json:"total_amount"`
	TransactionCount int      `json:"transaction_count"`
	CategoryCount    int      `json:"category_count"`
	Categories       []string `json:"categories"`
}

// WithTag returns the transactions carrying tag, ignoring case.
func WithTag(txs []domain.Transaction, tag string) []domain.Transaction {
	var out []domain.Transaction
	for _, tx := range txs {
		if tx.HasTag(tag) {
			out = append(out, tx)
		}
	}
	return out
}

// BreakdownByTag groups the qualifying transactions tagged with tag by
// category. Points are ordered by amount descending, then category name, and
// their percentages sum to 100 when any spend exists.
func BreakdownByTag(txs []domain.Transaction, tag string) TagBreakdown {
	tag = strings.ToLower(strings.TrimSpace(tag))
	out := TagBreakdown{Tag: tag, Points: []CategoryShare{}}

	subtotal := decimal.Zero
	amounts := map[string]decimal.Decimal{}
	counts := map[string]int{}
	for _, tx := range txs {
		if !tx.HasTag(tag) || !tx.Qualifying() {
			continue
		}
		amt := dec(tx.Amount)
		subtotal = subtotal.Add(amt)
		amounts[tx.Category] = amounts[tx.Category].Add(amt)
		counts[tx.Category]++
		out.TransactionCount++
	}
	out.TotalAmount = money(subtotal)
	if subtotal.IsZero() {
		return out
	}

	hundred := decimal.NewFromInt(100)
	for cat, amt := range amounts {
		out.Points = append(out.Points, CategoryShare{
			Category:         cat,
			Amount:           money(amt),
			Percentage:       amt.Mul(hundred).Div(subtotal).Round(4).InexactFloat64(),
			TransactionCount: counts[cat],
		})
	}
	sort.Slice(out.Points, func(i, j int) bool {
		if out.Points[i].Amount != out.Points[j].Amount {
			return out.Points[i].Amount > out.Points[j].Amount
		}
		return out.Points[i].Category < out.Points[j].Category
	})
	return out
}

// AvailableTags lists every public tag with the summary of its
// transactions, most significant spend first.
func AvailableTags(txs []domain.Transaction) []TagStat {
	byTag := map[string][]domain.Transaction{}
	var order []string
	for _, tx := range txs {
		for _, tag := range tx.PublicTags() {
			if _, ok := byTag[tag]; !ok {
				order = append(order, tag)
			}
			byTag[tag] = append(byTag[tag], tx)
		}
	}

	stats := make([]TagStat, 0, len(order))
	for _, tag := range order {
		tagged := byTag[tag]
		summary := Summarize(tagged)

		cats := map[string]bool{}
		for _, tx := range tagged {
			cats[tx.Category] = true
		}
		names := make([]string, 0, len(cats))
		for c := range cats {
			names = append(names, c)
		}
		sort.Strings(names)

		stats = append(stats, TagStat{
			Tag:              tag,
			TotalAmount:      summary.TotalAmount,
			TransactionCount: summary.TransactionCount,
			CategoryCount:    len(names),
			Categories:       names,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalAmount != stats[j].TotalAmount {
			return stats[i].TotalAmount > stats[j].TotalAmount
		}
		return stats[i].Tag < stats[j].Tag
	})
	return stats
}

// TagNames returns the tag vocabulary in AvailableTags order.
func TagNames(stats []TagStat) []string {
	out := make([]string, len(stats))
	for i, s := range stats {
		out[i] = s.Tag
	}
	return out
}

package analytics

import (
	"sort"

	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
	"github.com/shopspring/decimal"
)

// palette is indexed by taxonomy.ColorIndex.
var palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9", "#D5DBDB",
}

// CategoryIndex is the /categories payload.
type CategoryIndex struct {
	Categories       []string                  `json:"categories"`
	ParentCategories []string                  `json:"parent_categories"`
	Hierarchy        map[string]map[string]int `json:"hierarchy"`
	CategoryCounts   map[string]int            `json:"category_counts"`
}

// CategoryStat describes one category present in the data.
type CategoryStat struct {
	Name             string  `json:"name"`
	Parent           string  `json:"parent"`
	Color            string  `json:"color"`
	TotalAmount      float64 `json:"total_amount"`
	TransactionCount int     `json:"transaction_count"`
}

// Hierarchy counts transactions per parent and child category for the
// categories present in txs.
func Hierarchy(tax *taxonomy.Taxonomy, txs []domain.Transaction) CategoryIndex {
	idx := CategoryIndex{
		Categories:       []string{},
		ParentCategories: []string{},
		Hierarchy:        map[string]map[string]int{},
		CategoryCounts:   map[string]int{},
	}
	for _, tx := range txs {
		parent := tax.ParentOf(tx.Category)
		if _, ok := idx.CategoryCounts[tx.Category]; !ok {
			idx.Categories = append(idx.Categories, tx.Category)
		}
		idx.CategoryCounts[tx.Category]++

		children, ok := idx.Hierarchy[parent]
		if !ok {
			children = map[string]int{}
			idx.Hierarchy[parent] = children
			idx.ParentCategories = append(idx.ParentCategories, parent)
		}
		children[tx.Category]++
	}
	sort.Strings(idx.Categories)
	sort.Strings(idx.ParentCategories)
	return idx
}

// CategoryStats lists categories present in txs with their qualifying spend,
// largest first.
func CategoryStats(tax *taxonomy.Taxonomy, txs []domain.Transaction) []CategoryStat {
	totals := map[string]decimal.Decimal{}
	counts := map[string]int{}
	for _, tx := range txs {
		counts[tx.Category]++
		if tx.Qualifying() {
			totals[tx.Category] = totals[tx.Category].Add(dec(tx.Amount))
		} else if _, ok := totals[tx.Category]; !ok {
			totals[tx.Category] = decimal.Zero
		}
	}

	out := make([]CategoryStat, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryStat{
			Name:             name,
			Parent:           tax.ParentOf(name),
			Color:            palette[taxonomy.ColorIndex(name, len(palette))],
			TotalAmount:      money(totals[name]),
			TransactionCount: n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

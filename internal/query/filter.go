// Package query selects transactions matching combinable predicates.
package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
)

// All is the selector value that disables a category or tag predicate.
const All = "all"

// Criteria is the set of predicates applied by Filter. All predicates are
// ANDed; zero values disable the corresponding predicate.
type Criteria struct {
	SearchText string
	// Category is "all", a category name, or "parent:<Parent>".
	Category string
	Tag      string
	// Start and End bound the date inclusively at day granularity.
	Start time.Time
	End   time.Time

	IncludeExcluded bool
	Types           []domain.TransactionType
	MinAmount       *float64
	MaxAmount       *float64
}

// ErrUnknownCategory is returned by Validate when the category selector
// names nothing declared in the taxonomy.
var ErrUnknownCategory = errors.New("unknown category")

// Validate checks the category selector against tax. Filter itself treats
// an unknown selector as matching nothing.
func (c Criteria) Validate(tax *taxonomy.Taxonomy) error {
	m := c.matcher(tax)
	if m.category != "" && !tax.IsCategory(m.category) {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, m.category)
	}
	if m.parent != "" && !isParent(tax, m.parent) {
		return fmt.Errorf("%w: %s%s", ErrUnknownCategory, taxonomy.ParentSelectorPrefix, m.parent)
	}
	return nil
}

func isParent(tax *taxonomy.Taxonomy, name string) bool {
	for _, p := range tax.Parents() {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// Filter returns the transactions matching c in their original order.
func Filter(txs []domain.Transaction, c Criteria) []domain.Transaction {
	return FilterWith(taxonomy.Default(), txs, c)
}

// FilterWith is Filter over an explicit taxonomy.
func FilterWith(tax *taxonomy.Taxonomy, txs []domain.Transaction, c Criteria) []domain.Transaction {
	m := c.matcher(tax)
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if m.match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

type matcher struct {
	tax        *taxonomy.Taxonomy
	search     string
	category   string
	parent     string
	tag        string
	start, end time.Time
	c          Criteria
}

func (c Criteria) matcher(tax *taxonomy.Taxonomy) matcher {
	m := matcher{
		tax:    tax,
		search: strings.ToLower(strings.TrimSpace(c.SearchText)),
		start:  day(c.Start),
		end:    day(c.End),
		c:      c,
	}

	cat := strings.TrimSpace(c.Category)
	switch {
	case cat == "" || strings.EqualFold(cat, All):
	case len(cat) > len(taxonomy.ParentSelectorPrefix) &&
		strings.EqualFold(cat[:len(taxonomy.ParentSelectorPrefix)], taxonomy.ParentSelectorPrefix):
		m.parent = strings.TrimSpace(cat[len(taxonomy.ParentSelectorPrefix):])
	default:
		m.category = cat
	}

	if tag := strings.TrimSpace(c.Tag); tag != "" && !strings.EqualFold(tag, All) {
		m.tag = tag
	}
	return m
}

func (m matcher) match(tx domain.Transaction) bool {
	if tx.Excluded && !m.c.IncludeExcluded {
		return false
	}
	if m.search != "" &&
		!strings.Contains(strings.ToLower(tx.Description), m.search) &&
		!strings.Contains(strings.ToLower(tx.Merchant), m.search) {
		return false
	}
	if m.category != "" && tx.Category != m.category {
		return false
	}
	if m.parent != "" && !m.tax.InParent(tx.Category, m.parent) {
		return false
	}
	if m.tag != "" && !tx.HasTag(m.tag) {
		return false
	}

	d := day(tx.Date)
	if !m.start.IsZero() && d.Before(m.start) {
		return false
	}
	if !m.end.IsZero() && d.After(m.end) {
		return false
	}

	if len(m.c.Types) > 0 && !hasType(m.c.Types, tx.Type) {
		return false
	}
	abs := tx.Amount
	if abs < 0 {
		abs = -abs
	}
	if m.c.MinAmount != nil && abs < *m.c.MinAmount {
		return false
	}
	if m.c.MaxAmount != nil && abs > *m.c.MaxAmount {
		return false
	}
	return true
}

func hasType(types []domain.TransactionType, t domain.TransactionType) bool {
	for _, have := range types {
		if have == t {
			return true
		}
	}
	return false
}

func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

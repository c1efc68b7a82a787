package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the wire format of transaction dates.
const DateLayout = "2006-01-02"

// StatusTagPrefix marks bookkeeping tags derived from the CSV status column.
// They stay on the transaction but are hidden from tag listings.
const StatusTagPrefix = "status:"

// TransactionType classifies a row for aggregation purposes.
type TransactionType string

const (
	TypeRegular          TransactionType = "regular"
	TypeInternalTransfer TransactionType = "internal_transfer"
	TypeIncome           TransactionType = "income"
)

// ParseTransactionType maps the exporter's type column to a TransactionType.
// Anything unrecognized is regular.
func ParseTransactionType(s string) TransactionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "internal transfer", "internal_transfer", "transfer":
		return TypeInternalTransfer
	case "income":
		return TypeIncome
	default:
		return TypeRegular
	}
}

// Transaction is one normalized expense row. Values are built once at load
// time and never mutated afterwards.
type Transaction struct {
	ID             string          `json:"id"`
	Date           time.Time       `json:"date"`
	Amount         float64         `json:"amount"`
	Description    string          `json:"description"`
	RawCategory    string          `json:"raw_category,omitempty"`
	Category       string          `json:"category"`
	ParentCategory string          `json:"parent_category"`
	Merchant       string          `json:"merchant"`
	Tags           []string        `json:"tags"`
	Notes          string          `json:"notes,omitempty"`
	Account        string          `json:"account,omitempty"`
	Status         string          `json:"status,omitempty"`
	Type           TransactionType `json:"transaction_type"`
	Excluded       bool            `json:"excluded"`
	Recurring      string          `json:"recurring,omitempty"`
}

// MarshalJSON renders Date as YYYY-MM-DD and exposes only public tags.
func (t Transaction) MarshalJSON() ([]byte, error) {
	type alias Transaction
	return json.Marshal(struct {
		alias
		Date string   `json:"date"`
		Tags []string `json:"tags"`
	}{
		alias: alias(t),
		Date:  t.Date.Format(DateLayout),
		Tags:  t.PublicTags(),
	})
}

// PublicTags returns the tag set without status markers.
func (t Transaction) PublicTags() []string {
	out := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		if !strings.HasPrefix(tag, StatusTagPrefix) {
			out = append(out, tag)
		}
	}
	return out
}

// HasTag reports whether the transaction carries the public tag, ignoring
// case. Status markers never match.
func (t Transaction) HasTag(tag string) bool {
	for _, have := range t.Tags {
		if strings.HasPrefix(have, StatusTagPrefix) {
			continue
		}
		if strings.EqualFold(have, tag) {
			return true
		}
	}
	return false
}

// Qualifying reports whether the row counts toward spending totals:
// a positive amount on a regular transaction.
func (t Transaction) Qualifying() bool {
	return t.Amount > 0 && t.Type == TypeRegular
}

// MonthKey returns the YYYY-MM bucket of the transaction date.
func (t Transaction) MonthKey() string {
	return t.Date.Format("2006-01")
}

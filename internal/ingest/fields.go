package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var errEmpty = errors.New("value is empty")

// dateLayouts are tried in order; ISO first, then US, then EU, then the
// timestamped variants.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006 15:04:05",
	"02/01/2006 15:04:05",
}

// ParseDate returns the calendar date of s using the first layout that
// accepts it. The result is truncated to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmpty
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

var amountReplacer = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "",
	",", "", " ", "", "\u00a0", "",
)

// ParseAmount parses a currency string such as "$1,500.00" or "(45.10)".
// Parentheses denote a negative amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errEmpty
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	cleaned := amountReplacer.Replace(s)
	if cleaned == "" {
		return decimal.Zero, errEmpty
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number")
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ParseTags splits a tag cell on commas, semicolons or pipes. Tags are
// trimmed, lower-cased and de-duplicated in first-seen order.
func ParseTags(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	seen := make(map[string]bool, len(parts))
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.ToLower(strings.TrimSpace(p))
		if tag == "" || tag == "nan" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}

package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/expense-explorer/internal/domain"
)

// ParseCriteria reads filter criteria from request query parameters.
func ParseCriteria(v url.Values) (Criteria, error) {
	c := Criteria{
		SearchText: first(v, "search", "search_text", "q"),
		Category:   first(v, "category"),
		Tag:        first(v, "tag"),
	}

	var err error
	if s := first(v, "start_date"); s != "" {
		if c.Start, err = time.Parse(domain.DateLayout, s); err != nil {
			return Criteria{}, fmt.Errorf("invalid start_date %q: want YYYY-MM-DD", s)
		}
	}
	if s := first(v, "end_date"); s != "" {
		if c.End, err = time.Parse(domain.DateLayout, s); err != nil {
			return Criteria{}, fmt.Errorf("invalid end_date %q: want YYYY-MM-DD", s)
		}
	}
	if !c.Start.IsZero() && !c.End.IsZero() && c.End.Before(c.Start) {
		return Criteria{}, fmt.Errorf("end_date is before start_date")
	}

	if s := first(v, "include_excluded"); s != "" {
		if c.IncludeExcluded, err = strconv.ParseBool(s); err != nil {
			return Criteria{}, fmt.Errorf("invalid include_excluded %q", s)
		}
	}

	if s := first(v, "transaction_types", "transaction_type"); s != "" {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				c.Types = append(c.Types, domain.ParseTransactionType(part))
			}
		}
	}

	if c.MinAmount, err = amountParam(v, "min_amount"); err != nil {
		return Criteria{}, err
	}
	if c.MaxAmount, err = amountParam(v, "max_amount"); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

func amountParam(v url.Values, key string) (*float64, error) {
	s := first(v, key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, s)
	}
	return &f, nil
}

func first(v url.Values, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(v.Get(k)); s != "" {
			return s
		}
	}
	return ""
}

// Package analytics computes spending statistics over a transaction subset.
//
// Only qualifying transactions (positive amount, regular type) count as
// spend. Income and internal transfers are reported separately and never
// inflate totals, averages or category breakdowns.
package analytics

import (
	"sort"

	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/shopspring/decimal"
)

const topMerchantLimit = 10

// Summary is the aggregate view returned by /transactions/summary.
type Summary struct {
	TotalAmount       float64            `json:"total_amount"`
	TotalIncomeAmount float64            `json:"total_income_amount"`
	TransactionCount  int                `json:"transaction_count"`
	QualifyingCount   int                `json:"qualifying_count"`
	RegularCount      int                `json:"regular_count"`
	IncomeCount       int                `json:"income_count"`
	TransferCount     int                `json:"transfer_count"`
	AverageAmount     float64            `json:"average_amount"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	MonthlyTrends     []MonthlyTrend     `json:"monthly_trends"`
	TopMerchants      []MerchantTotal    `json:"top_merchants"`
	SpendingVelocity  Velocity           `json:"spending_velocity"`
}

// MonthlyTrend is one calendar-month bucket of qualifying spend.
// NetAmount equals RegularAmount: net is regular spend only.
type MonthlyTrend struct {
	Month            string  `json:"month"`
	NetAmount        float64 `json:"net_amount"`
	RegularAmount    float64 `json:"regular_amount"`
	IncomeAmount     float64 `json:"income_amount"`
	TransactionCount int     `json:"transaction_count"`
}

// MerchantTotal is qualifying spend at one merchant.
type MerchantTotal struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

// Velocity is qualifying spend averaged over the covered date span.
type Velocity struct {
	Daily   float64 `json:"daily"`
	Weekly  float64 `json:"weekly"`
	Monthly float64 `json:"monthly"`
}

type monthBucket struct {
	key     string
	year    int
	month   int
	regular decimal.Decimal
	income  decimal.Decimal
	count   int
}

// Summarize aggregates txs. TransactionCount covers every input row while
// the average divides by the qualifying count only.
func Summarize(txs []domain.Transaction) Summary {
	s := Summary{
		TransactionCount:  len(txs),
		CategoryBreakdown: map[string]float64{},
		MonthlyTrends:     []MonthlyTrend{},
		TopMerchants:      []MerchantTotal{},
	}

	total := decimal.Zero
	income := decimal.Zero
	categories := map[string]decimal.Decimal{}
	months := map[string]*monthBucket{}
	merchants := map[string]*merchantAcc{}

	for _, tx := range txs {
		switch tx.Type {
		case domain.TypeIncome:
			s.IncomeCount++
			income = income.Add(dec(tx.Amount))
		case domain.TypeInternalTransfer:
			s.TransferCount++
		default:
			s.RegularCount++
		}

		if !tx.Qualifying() {
			continue
		}
		amt := dec(tx.Amount)
		s.QualifyingCount++
		total = total.Add(amt)
		categories[tx.Category] = categories[tx.Category].Add(amt)

		key := tx.MonthKey()
		b, ok := months[key]
		if !ok {
			b = &monthBucket{key: key, year: tx.Date.Year(), month: int(tx.Date.Month())}
			months[key] = b
		}
		b.regular = b.regular.Add(amt)
		b.count++

		name := tx.Merchant
		if name == "" {
			name = "Unknown"
		}
		m, ok := merchants[name]
		if !ok {
			m = &merchantAcc{name: name}
			merchants[name] = m
		}
		m.amount = m.amount.Add(amt)
		m.count++
	}

	// income only lands in months that already carry qualifying spend
	for _, tx := range txs {
		if tx.Type != domain.TypeIncome {
			continue
		}
		if b, ok := months[tx.MonthKey()]; ok {
			b.income = b.income.Add(dec(tx.Amount))
		}
	}

	s.TotalAmount = money(total)
	s.TotalIncomeAmount = money(income)
	if s.QualifyingCount > 0 {
		s.AverageAmount = money(total.Div(decimal.NewFromInt(int64(s.QualifyingCount))))
	}
	for cat, amt := range categories {
		s.CategoryBreakdown[cat] = money(amt)
	}

	s.MonthlyTrends = monthlyTrends(months)
	s.TopMerchants = topMerchants(merchants, topMerchantLimit)
	s.SpendingVelocity = velocity(txs, total)
	return s
}

func monthlyTrends(months map[string]*monthBucket) []MonthlyTrend {
	buckets := make([]*monthBucket, 0, len(months))
	for _, b := range months {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].year != buckets[j].year {
			return buckets[i].year < buckets[j].year
		}
		return buckets[i].month < buckets[j].month
	})

	out := make([]MonthlyTrend, 0, len(buckets))
	for _, b := range buckets {
		regular := money(b.regular)
		out = append(out, MonthlyTrend{
			Month:            b.key,
			NetAmount:        regular,
			RegularAmount:    regular,
			IncomeAmount:     money(b.income),
			TransactionCount: b.count,
		})
	}
	return out
}

type merchantAcc struct {
	name   string
	amount decimal.Decimal
	count  int
}

func topMerchants(merchants map[string]*merchantAcc, limit int) []MerchantTotal {
	list := make([]*merchantAcc, 0, len(merchants))
	for _, m := range merchants {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool {
		if c := list[i].amount.Cmp(list[j].amount); c != 0 {
			return c > 0
		}
		return list[i].name < list[j].name
	})
	if len(list) > limit {
		list = list[:limit]
	}

	out := make([]MerchantTotal, 0, len(list))
	for _, m := range list {
		out = append(out, MerchantTotal{Merchant: m.name, Amount: money(m.amount), Count: m.count})
	}
	return out
}

func velocity(txs []domain.Transaction, total decimal.Decimal) Velocity {
	var first, last int64
	seen := false
	for _, tx := range txs {
		if !tx.Qualifying() {
			continue
		}
		d := tx.Date.Unix() / 86400
		if !seen || d < first {
			first = d
		}
		if !seen || d > last {
			last = d
		}
		seen = true
	}
	if !seen {
		return Velocity{}
	}

	days := decimal.NewFromInt(last - first + 1)
	return Velocity{
		Daily:   money(total.Div(days)),
		Weekly:  money(total.Mul(decimal.NewFromInt(7)).Div(days)),
		Monthly: money(total.Mul(decimal.NewFromInt(30)).Div(days)),
	}
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// money rounds to cents for presentation.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

package assistant

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/expense-explorer/internal/analytics"
	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/dvloznov/expense-explorer/internal/query"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
)

// recentLimit is how many transactions go into the model context.
const recentLimit = 50

const systemPrompt = "You are an expert financial advisor specializing in MBA expenses and budgeting.\n" +
	"You have access to real expense data from an MBA student and can provide insights,\n" +
	"visualizations, and recommendations.\n\n" +
	"Always provide:\n" +
	"- Clear, actionable insights\n" +
	"- Data-driven recommendations\n" +
	"- MBA-specific context and advice\n\n" +
	"Amounts are in dollars. Only regular transactions with a positive amount count as spending;\n" +
	"income and internal transfers are listed for context only.\n" +
	"Be conversational but professional. Use the expense data to support your recommendations.\n"

// BuildPrompt assembles the model input for a general question. Client
// context, when present, is appended as JSON before the question.
func BuildPrompt(tax *taxonomy.Taxonomy, txs []domain.Transaction, q Question) string {
	question := q.Text
	var b strings.Builder
	b.WriteString(systemPrompt)

	b.WriteString("\nSummary:\n")
	b.WriteString(mustJSON(analytics.Summarize(txs)))
	b.WriteString("\n")

	recent := Recent(txs, recentLimit)
	fmt.Fprintf(&b, "\nMost recent %d of %d transactions (date | amount | category | type | description | tags):\n", len(recent), len(txs))
	for _, tx := range recent {
		fmt.Fprintf(&b, "%s | %.2f | %s | %s | %s | %s\n",
			tx.Date.Format(domain.DateLayout), tx.Amount, tx.Category, tx.Type,
			tx.Description, strings.Join(tx.PublicTags(), ","))
	}

	if cat := mentionedCategory(tax, question); cat != "" {
		focused := query.FilterWith(tax, txs, query.Criteria{Category: cat})
		fmt.Fprintf(&b, "\nFocus category %q summary:\n%s\n", cat, mustJSON(analytics.Summarize(focused)))
	}

	if len(q.Context) > 0 {
		fmt.Fprintf(&b, "\nAdditional context:\n%s\n", mustJSON(q.Context))
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}

// Recent returns up to n transactions, newest first. Input order breaks
// date ties.
func Recent(txs []domain.Transaction, n int) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// mentionedCategory picks the longest taxonomy category named in question.
func mentionedCategory(tax *taxonomy.Taxonomy, question string) string {
	lower := strings.ToLower(question)
	best := ""
	for _, cat := range tax.Categories() {
		if cat == taxonomy.Other {
			continue
		}
		if strings.Contains(lower, strings.ToLower(cat)) && len(cat) > len(best) {
			best = cat
		}
	}
	return best
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}

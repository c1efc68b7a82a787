package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/expense-explorer/internal/analytics"
	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/dvloznov/expense-explorer/internal/query"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a model call when the dispatcher is built without one.
const DefaultTimeout = 30 * time.Second

// Visualization is a rendering hint for the client.
type Visualization struct {
	ChartType        string              `json:"chart_type"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	AvailableOptions []analytics.TagStat `json:"available_options,omitempty"`
}

// Answer is the /query response body.
type Answer struct {
	Answer         string                    `json:"answer"`
	Intent         string                    `json:"intent"`
	Visualizations []Visualization           `json:"visualizations"`
	DataPoints     []analytics.CategoryShare `json:"data_points"`
}

// Dispatcher routes questions to local answers or the language model.
type Dispatcher struct {
	tax     *taxonomy.Taxonomy
	llm     Completer
	timeout time.Duration
	log     zerolog.Logger
}

// NewDispatcher builds a Dispatcher. llm may be nil, in which case general
// questions get the apology answer.
func NewDispatcher(tax *taxonomy.Taxonomy, llm Completer, timeout time.Duration, log zerolog.Logger) *Dispatcher {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{tax: tax, llm: llm, timeout: timeout, log: log}
}

// Question is a natural-language question plus optional client context
// forwarded to the model.
type Question struct {
	Text    string
	Context map[string]interface{}
}

// Ask answers q over txs. txs must be a snapshot the caller owns; no lock
// is held while the model runs. Excluded rows are dropped first, matching
// the default filter. Ask never fails: model errors become an apology in
// the answer text.
func (d *Dispatcher) Ask(ctx context.Context, q Question, txs []domain.Transaction) Answer {
	txs = query.FilterWith(d.tax, txs, query.Criteria{})
	tags := analytics.AvailableTags(txs)
	intent := Classify(q.Text, analytics.TagNames(tags))

	switch intent.Kind {
	case ListTags:
		return listTagsAnswer(tags)
	case TagBreakdown:
		return breakdownAnswer(analytics.BreakdownByTag(txs, intent.Tag))
	default:
		return d.general(ctx, Question{Text: intent.Text, Context: q.Context}, txs)
	}
}

func listTagsAnswer(tags []analytics.TagStat) Answer {
	answer := "Which tag would you like to break down? Pick one of the available tags."
	if len(tags) == 0 {
		answer = "There are no tagged transactions to break down yet."
	}
	return Answer{
		Answer: answer,
		Intent: ListTags.String(),
		Visualizations: []Visualization{{
			ChartType:        "tag_selector",
			Title:            "Select a tag",
			Description:      "Choose a tag to see how its spending splits across categories",
			AvailableOptions: tags,
		}},
		DataPoints: []analytics.CategoryShare{},
	}
}

func breakdownAnswer(b analytics.TagBreakdown) Answer {
	var answer string
	if len(b.Points) == 0 {
		answer = fmt.Sprintf("No qualifying spending is tagged %q.", b.Tag)
	} else {
		top := b.Points[0]
		answer = fmt.Sprintf("Spending tagged %q totals $%.2f across %d categories. The largest share is %s at $%.2f (%.1f%%).",
			b.Tag, b.TotalAmount, len(b.Points), top.Category, top.Amount, top.Percentage)
	}
	return Answer{
		Answer: answer,
		Intent: TagBreakdown.String(),
		Visualizations: []Visualization{{
			ChartType:   "venn",
			Title:       fmt.Sprintf("Category breakdown for %q", b.Tag),
			Description: fmt.Sprintf("How $%.2f of %q spending splits across categories", b.TotalAmount, b.Tag),
		}},
		DataPoints: b.Points,
	}
}

func (d *Dispatcher) general(ctx context.Context, q Question, txs []domain.Transaction) Answer {
	out := Answer{Intent: General.String()}

	if d.llm == nil {
		d.log.Warn().Msg("Language model not configured, returning fallback answer")
		out.Answer = apology(ErrNotConfigured)
		return out
	}

	prompt := BuildPrompt(d.tax, txs, q)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	text, err := d.llm.Complete(ctx, prompt)
	if err != nil {
		d.log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Language model call failed")
		out.Answer = apology(err)
		return out
	}
	d.log.Debug().Dur("elapsed", time.Since(start)).Int("prompt_bytes", len(prompt)).Msg("Language model answered")

	out.Answer = text
	lower := strings.ToLower(text)
	if strings.Contains(lower, "chart") || strings.Contains(lower, "visualization") {
		out.Visualizations = []Visualization{{
			ChartType:   "bar",
			Title:       "Expense Analysis",
			Description: "Generated visualization based on your query",
		}}
	}
	return out
}

func apology(err error) string {
	return "I encountered an error processing your question: " + err.Error()
}

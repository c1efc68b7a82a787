// Package handlers implements the JSON endpoints of the expense API.
package handlers

import (
	"net/http"

	"github.com/dvloznov/expense-explorer/internal/analytics"
	"github.com/dvloznov/expense-explorer/internal/api/middleware"
	"github.com/dvloznov/expense-explorer/internal/domain"
	"github.com/dvloznov/expense-explorer/internal/query"
	"github.com/dvloznov/expense-explorer/internal/store"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
	"github.com/rs/zerolog"
)

// TransactionsHandler serves filtered views over the loaded transactions.
type TransactionsHandler struct {
	store *store.Store
	tax   *taxonomy.Taxonomy
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(st *store.Store, tax *taxonomy.Taxonomy, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		store: st,
		tax:   tax,
		log:   log,
	}
}

// filtered applies the request's filter parameters to the current snapshot.
// Excluded rows are hidden unless include_excluded is set. It writes a 400
// and returns false on bad parameters.
func (h *TransactionsHandler) filtered(w http.ResponseWriter, r *http.Request) ([]domain.Transaction, bool) {
	criteria, err := query.ParseCriteria(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := criteria.Validate(h.tax); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return query.FilterWith(h.tax, h.store.All(), criteria), true
}

// ListTransactions handles GET /transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.filtered(w, r)
	if !ok {
		return
	}

	// Return array directly for frontend compatibility
	if txs == nil {
		txs = []domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, txs)
}

// Summary handles GET /transactions/summary
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.filtered(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, analytics.Summarize(txs))
}

// CategoryStats handles GET /transactions/categories
func (h *TransactionsHandler) CategoryStats(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.filtered(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, analytics.CategoryStats(h.tax, txs))
}

// Hierarchy handles GET /categories
func (h *TransactionsHandler) Hierarchy(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.filtered(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, analytics.Hierarchy(h.tax, txs))
}

// Tags handles GET /tags
func (h *TransactionsHandler) Tags(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.filtered(w, r)
	if !ok {
		return
	}
	tags := analytics.AvailableTags(txs)
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tags":  tags,
		"count": len(tags),
	})
}

// TagBreakdown handles GET /tags/{tag}
func (h *TransactionsHandler) TagBreakdown(w http.ResponseWriter, r *http.Request, tag string) {
	txs, ok := h.filtered(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, analytics.BreakdownByTag(txs, tag))
}

// Insights handles GET /insights/mba-specific
func (h *TransactionsHandler) Insights(w http.ResponseWriter, r *http.Request) {
	txs, ok := h.filtered(w, r)
	if !ok {
		return
	}
	middleware.WriteJSON(w, http.StatusOK, analytics.Insights(txs))
}

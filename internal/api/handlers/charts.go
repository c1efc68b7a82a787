package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/expense-explorer/internal/analytics"
	"github.com/dvloznov/expense-explorer/internal/api/middleware"
	"github.com/dvloznov/expense-explorer/internal/charts"
	"github.com/dvloznov/expense-explorer/internal/query"
	"github.com/dvloznov/expense-explorer/internal/store"
	"github.com/dvloznov/expense-explorer/internal/taxonomy"
	"github.com/rs/zerolog"
)

// ChartsHandler renders PNG charts of the filtered summary.
type ChartsHandler struct {
	store *store.Store
	tax   *taxonomy.Taxonomy
	log   zerolog.Logger
}

// NewChartsHandler creates a new charts handler.
func NewChartsHandler(st *store.Store, tax *taxonomy.Taxonomy, log zerolog.Logger) *ChartsHandler {
	return &ChartsHandler{store: st, tax: tax, log: log}
}

// Monthly handles GET /charts/monthly.png
func (h *ChartsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "monthly", charts.MonthlyTrend)
}

// Categories handles GET /charts/categories.png
func (h *ChartsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "categories", charts.CategoryBreakdown)
}

func (h *ChartsHandler) render(w http.ResponseWriter, r *http.Request, name string, draw func(analytics.Summary) ([]byte, error)) {
	criteria, err := query.ParseCriteria(r.URL.Query())
	if err == nil {
		err = criteria.Validate(h.tax)
	}
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary := analytics.Summarize(query.FilterWith(h.tax, h.store.All(), criteria))
	img, err := draw(summary)
	if errors.Is(err, charts.ErrNoData) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("chart", name).Msg("Failed to render chart")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

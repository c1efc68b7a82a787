package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/expense-explorer/internal/api/middleware"
	"github.com/dvloznov/expense-explorer/internal/store"
)

// SystemHandler serves the service banner and health check.
type SystemHandler struct {
	store *store.Store
}

// NewSystemHandler creates a new system handler.
func NewSystemHandler(st *store.Store) *SystemHandler {
	return &SystemHandler{store: st}
}

// Root handles GET /
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "MBA Expense Explorer API",
		"status":  "running",
	})
}

// Health handles GET /health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	resp := map[string]interface{}{
		"status":       "healthy",
		"time":         time.Now().Format(time.RFC3339),
		"transactions": len(snap.Transactions),
		"source":       snap.Source,
		"version":      snap.Version,
	}
	if !snap.LoadedAt.IsZero() {
		resp["loaded_at"] = snap.LoadedAt.Format(time.RFC3339)
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/dvloznov/expense-explorer/internal/api/middleware"
)

// Handlers groups every endpoint handler served by the API.
type Handlers struct {
	System       *SystemHandler
	Transactions *TransactionsHandler
	Query        *QueryHandler
	Data         *DataHandler
	Charts       *ChartsHandler
	Jobs         *JobsHandler
}

// only rejects requests whose method differs from method.
func only(method string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		fn(w, r)
	}
}

// NewMux registers all routes on a fresh ServeMux.
func NewMux(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		only(http.MethodGet, h.System.Root)(w, r)
	})
	mux.HandleFunc("/health", only(http.MethodGet, h.System.Health))

	// Transactions endpoints, with the older /expenses paths kept as aliases
	for _, prefix := range []string{"/transactions", "/expenses"} {
		mux.HandleFunc(prefix, only(http.MethodGet, h.Transactions.ListTransactions))
		mux.HandleFunc(prefix+"/summary", only(http.MethodGet, h.Transactions.Summary))
		mux.HandleFunc(prefix+"/categories", only(http.MethodGet, h.Transactions.CategoryStats))
	}

	mux.HandleFunc("/categories", only(http.MethodGet, h.Transactions.Hierarchy))
	mux.HandleFunc("/insights/mba-specific", only(http.MethodGet, h.Transactions.Insights))

	// Tags endpoints
	mux.HandleFunc("/tags", only(http.MethodGet, h.Transactions.Tags))
	mux.HandleFunc("/tags/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			tag := strings.TrimPrefix(r.URL.Path, "/tags/")
			if tag == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Tag is required")
				return
			}
			h.Transactions.TagBreakdown(w, r, tag)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/query", only(http.MethodPost, h.Query.Ask))

	// Data endpoints
	mux.HandleFunc("/data/upload", only(http.MethodPost, h.Data.Upload))
	mux.HandleFunc("/data/validate", only(http.MethodPost, h.Data.Validate))
	mux.HandleFunc("/data/sample-csv", only(http.MethodGet, h.Data.SampleCSV))
	mux.HandleFunc("/data/sync", only(http.MethodGet, h.Data.Sync))

	mux.HandleFunc("/charts/monthly.png", only(http.MethodGet, h.Charts.Monthly))
	mux.HandleFunc("/charts/categories.png", only(http.MethodGet, h.Charts.Categories))

	// Jobs endpoints
	mux.HandleFunc("/jobs", only(http.MethodGet, h.Jobs.ListJobs))
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			h.Jobs.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	return mux
}

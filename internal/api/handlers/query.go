package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dvloznov/expense-explorer/internal/api/middleware"
	"github.com/dvloznov/expense-explorer/internal/assistant"
	"github.com/dvloznov/expense-explorer/internal/store"
	"github.com/rs/zerolog"
)

const maxQuestionBytes = 64 << 10

// QueryHandler answers natural-language questions.
type QueryHandler struct {
	store      *store.Store
	dispatcher *assistant.Dispatcher
	log        zerolog.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(st *store.Store, dispatcher *assistant.Dispatcher, log zerolog.Logger) *QueryHandler {
	return &QueryHandler{
		store:      st,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Ask handles POST /query. Model failures still produce a 200 with an
// explanatory answer.
func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string                 `json:"question"`
		Context  map[string]interface{} `json:"context,omitempty"`
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuestionBytes)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Question is required")
		return
	}

	// snapshot first: no lock is held while the model runs
	txs := h.store.All()
	answer := h.dispatcher.Ask(r.Context(), assistant.Question{Text: question, Context: req.Context}, txs)

	h.log.Info().
		Str("intent", answer.Intent).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Msg("Question answered")

	middleware.WriteJSON(w, http.StatusOK, answer)
}

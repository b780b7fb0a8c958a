package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/auth"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
)

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question   string `json:"question"`
	Mode       string `json:"mode"`
	Datasource string `json:"datasource"`
	Schema     string `json:"schema"`
}

// AskHandler answers questions for browser and API clients. The session is
// carried in a signed cookie.
type AskHandler struct {
	askService services.AskService
	store      *auth.SessionStore
	logger     *zap.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(askService services.AskService, store *auth.SessionStore, logger *zap.Logger) *AskHandler {
	return &AskHandler{
		askService: askService,
		store:      store,
		logger:     logger,
	}
}

// RegisterRoutes registers the ask handler's routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ask", h.Ask)
}

// Ask handles POST /api/ask
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.askService.Ask(r.Context(), services.AskRequest{
		SessionID:  h.store.ID(r),
		Datasource: req.Datasource,
		Schema:     req.Schema,
		Question:   req.Question,
		Mode:       models.AskMode(req.Mode),
	})

	// The cookie goes out on failures too: the turn is in the session history.
	if result != nil && result.SessionID != "" {
		if saveErr := h.store.Save(w, r, result.SessionID); saveErr != nil {
			h.logger.Error("Failed to save session cookie", zap.Error(saveErr))
		}
	}

	if err != nil {
		var partial any
		if result != nil {
			partial = result
		}
		writeServiceError(w, h.logger, err, partial)
		return
	}

	writeOK(w, h.logger, result)
}

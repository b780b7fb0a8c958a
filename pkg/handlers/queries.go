package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/auth"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
)

// ExecuteQueryRequest is the body of POST /api/query.
type ExecuteQueryRequest struct {
	SQL        string `json:"sql"`
	Datasource string `json:"datasource"`
}

// ExecuteQueryResponse is the data of a successful POST /api/query.
type ExecuteQueryResponse struct {
	SessionID string              `json:"session_id"`
	Columns   []models.ColumnInfo `json:"columns"`
	Rows      [][]any             `json:"rows"`
	RowCount  int                 `json:"row_count"`
	Truncated bool                `json:"truncated,omitempty"`
}

// QueriesHandler runs SQL written by the caller.
type QueriesHandler struct {
	queryService services.QueryService
	sessions     services.SessionService
	store        *auth.SessionStore
	logger       *zap.Logger
}

// NewQueriesHandler creates a new queries handler.
func NewQueriesHandler(queryService services.QueryService, sessions services.SessionService, store *auth.SessionStore, logger *zap.Logger) *QueriesHandler {
	return &QueriesHandler{
		queryService: queryService,
		sessions:     sessions,
		store:        store,
		logger:       logger,
	}
}

// RegisterRoutes registers the queries handler's routes on the given mux.
func (h *QueriesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.Execute)
}

// Execute handles POST /api/query. The result becomes the session's last
// result, so a following POST /api/plot can chart it.
func (h *QueriesHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteQueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "sql is required")
		return
	}

	result, err := h.queryService.Execute(r.Context(), req.Datasource, req.SQL)
	if err != nil {
		writeServiceError(w, h.logger, err, nil)
		return
	}

	session := h.sessions.GetOrCreate(h.store.ID(r))
	session.SetLastResult(req.SQL, result)
	if err := h.store.Save(w, r, session.ID); err != nil {
		h.logger.Error("Failed to save session cookie", zap.Error(err))
	}

	rows := result.Rows
	if rows == nil {
		rows = [][]any{}
	}
	writeOK(w, h.logger, ExecuteQueryResponse{
		SessionID: session.ID,
		Columns:   result.Columns,
		Rows:      rows,
		RowCount:  result.RowCount(),
		Truncated: result.Truncated,
	})
}

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/auth"
	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
)

// SessionHandler exposes the caller's chat session.
type SessionHandler struct {
	sessions services.SessionService
	store    *auth.SessionStore
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions services.SessionService, store *auth.SessionStore, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, store: store, logger: logger}
}

// RegisterRoutes registers the session handler's routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session", h.Get)
	mux.HandleFunc("DELETE /api/session", h.Delete)
}

// Get handles GET /api/session and returns the history of the session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessions.Get(h.store.ID(r))
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "not_found", "No active session")
		return
	}
	writeOK(w, h.logger, session.Info())
}

// Delete handles DELETE /api/session. Deleting a missing session succeeds.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if id := h.store.ID(r); id != "" {
		h.sessions.Delete(id)
	}
	if err := h.store.Clear(w, r); err != nil {
		h.logger.Error("Failed to clear session cookie", zap.Error(err))
	}
	writeOK(w, h.logger, nil)
}

package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/auth"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
)

// PlotRequest is the body of POST /api/plot.
type PlotRequest struct {
	Format       string `json:"format"` // code (default) or spec
	Instructions string `json:"instructions"`
}

// PlotResponse is the data of a successful POST /api/plot.
type PlotResponse struct {
	Format string            `json:"format"`
	SQL    string            `json:"sql"`
	Code   *models.PlotCode  `json:"code,omitempty"`
	Spec   *models.ChartSpec `json:"spec,omitempty"`
}

// PlotHandler charts the last result of the caller's session.
type PlotHandler struct {
	plotService services.PlotService
	sessions    services.SessionService
	store       *auth.SessionStore
	logger      *zap.Logger
}

// NewPlotHandler creates a new plot handler.
func NewPlotHandler(plotService services.PlotService, sessions services.SessionService, store *auth.SessionStore, logger *zap.Logger) *PlotHandler {
	return &PlotHandler{
		plotService: plotService,
		sessions:    sessions,
		store:       store,
		logger:      logger,
	}
}

// RegisterRoutes registers the plot handler's routes on the given mux.
func (h *PlotHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/plot", h.Plot)
}

// Plot handles POST /api/plot
func (h *PlotHandler) Plot(w http.ResponseWriter, r *http.Request) {
	var req PlotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Format == "" {
		req.Format = services.PlotFormatCode
	}
	if req.Format != services.PlotFormatCode && req.Format != services.PlotFormatSpec {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("unknown format %q; use code or spec", req.Format))
		return
	}

	session, ok := h.sessions.Get(h.store.ID(r))
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "No active session; run a query first")
		return
	}
	sql, result, ok := session.LastResult()
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "No query result in this session; run a query first")
		return
	}

	response := PlotResponse{Format: req.Format, SQL: sql}
	var err error
	if req.Format == services.PlotFormatSpec {
		response.Spec, err = h.plotService.GenerateSpec(r.Context(), result, req.Instructions)
	} else {
		response.Code, err = h.plotService.GenerateCode(r.Context(), result, req.Instructions)
	}
	if err != nil {
		writeServiceError(w, h.logger, err, nil)
		return
	}
	session.SetLastPlot(response.Code, response.Spec)

	writeOK(w, h.logger, response)
}

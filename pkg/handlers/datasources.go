package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
)

// ListDatasourcesResponse wraps the datasource list.
type ListDatasourcesResponse struct {
	Datasources []datasource.DatasourceSummary `json:"datasources"`
}

// TestConnectionResponse for connection test result.
type TestConnectionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DatasourcesHandler lists datasources and their schemas.
type DatasourcesHandler struct {
	datasourceService services.DatasourceService
	schemaService     services.SchemaService
	logger            *zap.Logger
}

// NewDatasourcesHandler creates a new datasources handler.
func NewDatasourcesHandler(datasourceService services.DatasourceService, schemaService services.SchemaService, logger *zap.Logger) *DatasourcesHandler {
	return &DatasourcesHandler{
		datasourceService: datasourceService,
		schemaService:     schemaService,
		logger:            logger,
	}
}

// RegisterRoutes registers the datasources handler's routes on the given mux.
func (h *DatasourcesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/datasources", h.List)
	mux.HandleFunc("GET /api/datasources/{name}/schema", h.Schema)
	mux.HandleFunc("POST /api/datasources/{name}/test", h.TestConnection)
}

// List handles GET /api/datasources
func (h *DatasourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	list := h.datasourceService.List(r.Context())
	if list == nil {
		list = []datasource.DatasourceSummary{}
	}
	writeOK(w, h.logger, ListDatasourcesResponse{Datasources: list})
}

// Schema handles GET /api/datasources/{name}/schema?schema=&samples=&format=
// format=yaml returns the snapshot as a YAML document without sample rows.
func (h *DatasourcesHandler) Schema(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	query := r.URL.Query()

	format := query.Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "yaml" {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("unknown format %q; use json or yaml", format))
		return
	}

	withSamples := false
	if raw := query.Get("samples"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "samples must be true or false")
			return
		}
		withSamples = v && format == "json"
	}

	snapshot, err := h.schemaService.Snapshot(r.Context(), name, query.Get("schema"), withSamples)
	if err != nil {
		writeServiceError(w, h.logger, err, nil)
		return
	}

	if format == "yaml" {
		out, err := snapshot.YAML()
		if err != nil {
			writeServiceError(w, h.logger, err, nil)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		if _, err := w.Write([]byte(out)); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	writeOK(w, h.logger, snapshot)
}

// TestConnection handles POST /api/datasources/{name}/test
func (h *DatasourcesHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.datasourceService.TestConnection(r.Context(), name); err != nil {
		h.logger.Info("Datasource connection test failed", zap.String("datasource", name), zap.Error(err))
		writeOK(w, h.logger, TestConnectionResponse{Success: false, Message: err.Error()})
		return
	}
	writeOK(w, h.logger, TestConnectionResponse{Success: true, Message: "Connection successful"})
}

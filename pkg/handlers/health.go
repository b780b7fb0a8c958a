package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/config"
	"github.com/ekaya-inc/ekaya-askdb/pkg/metrics"
	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
)

// StatsProvider reports datasource connection statistics.
type StatsProvider interface {
	GetStats() datasource.ConnectionStats
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string                      `json:"status"`
	Version     string                      `json:"version"`
	Connections *datasource.ConnectionStats `json:"connections,omitempty"`
	Sessions    *int                        `json:"sessions,omitempty"`
}

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// HealthHandler handles health check, ping and metrics endpoints.
type HealthHandler struct {
	cfg      *config.Config
	stats    StatsProvider
	sessions services.SessionService
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. stats and sessions may be nil.
func NewHealthHandler(cfg *config.Config, stats StatsProvider, sessions services.SessionService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, stats: stats, sessions: sessions, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
	mux.HandleFunc("GET /metrics", h.Metrics)
}

// Health handles GET /health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "ok",
		Version: h.cfg.Version,
	}
	if h.stats != nil {
		stats := h.stats.GetStats()
		response.Connections = &stats
	}
	if h.sessions != nil {
		n := h.sessions.Count()
		response.Sessions = &n
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "ekaya-askdb",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}

// Metrics handles GET /metrics. Gauges that are sampled rather than
// updated on change are refreshed before the scrape.
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.stats != nil {
		metrics.SetDatasourceConnectionsOpen(h.stats.GetStats().Open)
	}
	if h.sessions != nil {
		metrics.SetSessionsActive(h.sessions.Count())
	}
	metrics.Handler().ServeHTTP(w, r)
}

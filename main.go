package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource/mssql"    // register sqlserver adapter
	_ "github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource/postgres" // register postgres adapter
	_ "github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource/sqlite"   // register sqlite adapter
	"github.com/ekaya-inc/ekaya-askdb/pkg/audit"
	"github.com/ekaya-inc/ekaya-askdb/pkg/auth"
	"github.com/ekaya-inc/ekaya-askdb/pkg/config"
	"github.com/ekaya-inc/ekaya-askdb/pkg/handlers"
	"github.com/ekaya-inc/ekaya-askdb/pkg/llm"
	"github.com/ekaya-inc/ekaya-askdb/pkg/logging"
	"github.com/ekaya-inc/ekaya-askdb/pkg/mcp"
	"github.com/ekaya-inc/ekaya-askdb/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-askdb/pkg/middleware"
	"github.com/ekaya-inc/ekaya-askdb/pkg/sandbox"
	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
	sqlutil "github.com/ekaya-inc/ekaya-askdb/pkg/sql"
	"github.com/ekaya-inc/ekaya-askdb/pkg/telemetry"
)

// Version is set at build time via ldflags
var Version = "dev"

const serviceName = "ekaya-askdb"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("validation", cfg.Query.Validation),
		zap.Bool("plot_execute", cfg.Plot.Execute))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, serviceName, cfg.Version, telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Datasources
	datasources := cfg.AllDatasources()
	if len(datasources) == 0 {
		logger.Warn("No datasources configured; set POSTGRES_HOST, DB_PATH or datasources in config.yaml")
	}
	for _, ds := range datasources {
		logger.Info("Datasource configured", zap.String("datasource", ds.LogSummary()))
	}
	connManager := datasource.NewConnectionManager(datasource.ConnectionManagerConfig{
		TTLMinutes:   cfg.Datasource.ConnectionTTLMinutes,
		PoolMaxConns: cfg.Datasource.PoolMaxConns,
		PoolMinConns: cfg.Datasource.PoolMinConns,
	}, datasources, logger)
	defer func() {
		if err := connManager.Close(); err != nil {
			logger.Error("Failed to close datasource connections", zap.Error(err))
		}
	}()

	// Model client. A missing or broken configuration leaves the service
	// running with a disabled client.
	llmClient := llm.NewClientFromConfig(ctx, llm.ConfigFrom(cfg.LLM), logger)

	var runner sandbox.Runner
	if cfg.Plot.Execute {
		logger.Warn("Plot code execution is enabled; generated python runs on this host",
			zap.String("python", cfg.Plot.Python))
		runner = sandbox.NewPythonRunner(sandbox.Config{Python: cfg.Plot.Python, Timeout: cfg.Plot.Timeout}, logger)
	}

	// Services
	auditor := audit.NewSecurityAuditor(logger)
	datasourceService := services.NewDatasourceService(connManager, logger)
	schemaService := services.NewSchemaService(datasourceService, cfg.Query.SampleRows, logger)
	queryService := services.NewQueryService(datasourceService, services.QueryOptions{
		MaxRows: cfg.Query.MaxRows,
		Timeout: cfg.Query.Timeout,
		Auditor: auditor,
	}, logger)
	sessionService := services.NewSessionService(cfg.Session.TTL, logger)
	sessionService.Start(ctx)
	defer sessionService.Stop()

	askService := services.NewAskService(schemaService, queryService, sessionService, llmClient, services.AskOptions{
		Temperature: cfg.LLM.Temperature,
		SampleRows:  cfg.Query.SampleRows,
		Validation: sqlutil.CheckOptions{
			Mode:       sqlutil.ValidationMode(cfg.Query.Validation),
			SelectStar: sqlutil.SelectStarPolicy(cfg.Query.SelectStar),
		},
		QualifySchema:    cfg.Query.QualifySchema,
		PromptTableLimit: cfg.Query.PromptTableLimit,
		Auditor:          auditor,
	}, logger)
	plotService := services.NewPlotService(llmClient, services.PlotOptions{
		SampleRows:  cfg.Plot.SampleRows,
		Temperature: cfg.LLM.Temperature,
		Runner:      runner,
	}, logger)

	// MCP server
	mcpServer := mcp.NewServer(serviceName, cfg.Version, mcp.NewToolAuditor(logger), logger)
	tools.RegisterAll(mcpServer.MCP(), &tools.Deps{
		Datasources: datasourceService,
		Schemas:     schemaService,
		Queries:     queryService,
		Ask:         askService,
		Version:     cfg.Version,
		Logger:      logger.Named("mcp"),
	})

	// HTTP routes
	if cfg.Session.Secret == "" {
		logger.Warn("SESSION_SECRET is not set; session cookies will not survive a restart")
	}
	sessionStore := auth.NewSessionStore(cfg.Session.CookieName, cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Secure)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, connManager, sessionService, logger).RegisterRoutes(mux)
	handlers.NewDatasourcesHandler(datasourceService, schemaService, logger).RegisterRoutes(mux)
	handlers.NewAskHandler(askService, sessionStore, logger).RegisterRoutes(mux)
	handlers.NewQueriesHandler(queryService, sessionService, sessionStore, logger).RegisterRoutes(mux)
	handlers.NewPlotHandler(plotService, sessionService, sessionStore, logger).RegisterRoutes(mux)
	handlers.NewSessionHandler(sessionService, sessionStore, logger).RegisterRoutes(mux)
	handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)

	handler := middleware.Tracing(middleware.RequestLogger(logger)(mux), serviceName)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("Starting "+serviceName,
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
		_ = server.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}
}

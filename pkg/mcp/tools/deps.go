package tools

import (
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
)

// Deps holds the services the tools call into.
type Deps struct {
	Datasources services.DatasourceService
	Schemas     services.SchemaService
	Queries     services.QueryService
	Ask         services.AskService
	Version     string
	Logger      *zap.Logger
}

// RegisterAll registers every askdb tool on s.
func RegisterAll(s ToolRegistrar, deps *Deps) {
	RegisterHealthTool(s, deps)
	RegisterSchemaTool(s, deps)
	RegisterGenerateSQLTool(s, deps)
	RegisterRunQueryTool(s, deps)
	RegisterAskDatabaseTool(s, deps)
}

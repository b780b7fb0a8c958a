package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
)

type healthResult struct {
	Status      string                         `json:"status"`
	Version     string                         `json:"version"`
	Datasources []datasource.DatasourceSummary `json:"datasources"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool returns the server status, version and configured datasources.
func RegisterHealthTool(s ToolRegistrar, deps *Deps) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version and the configured datasources"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := healthResult{Status: "ok", Version: deps.Version, Datasources: []datasource.DatasourceSummary{}}
		if deps.Datasources != nil {
			if list := deps.Datasources.List(ctx); list != nil {
				result.Datasources = list
			}
		}
		return jsonResult(result)
	})
}

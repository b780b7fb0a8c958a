package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// RegisterSchemaTool registers get_schema, which returns the tables and
// columns of a datasource schema.
func RegisterSchemaTool(s ToolRegistrar, deps *Deps) {
	tool := mcp.NewTool(
		"get_schema",
		mcp.WithDescription(
			"Returns the tables of a database schema with their column names. "+
				"Use this before writing SQL by hand. The default format is YAML; "+
				"format=json also includes sample rows when samples=true.",
		),
		mcp.WithString("datasource",
			mcp.Description("Datasource name (see health). Defaults to the first configured datasource"),
		),
		mcp.WithString("schema",
			mcp.Description("Schema name. Defaults to the datasource's configured or default schema"),
		),
		mcp.WithBoolean("samples",
			mcp.Description("Include a few sample rows per table (json format only)"),
		),
		mcp.WithString("format",
			mcp.Description("yaml (default) or json"),
			mcp.Enum("yaml", "json"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		format := optionalString(req, "format")
		if format == "" {
			format = "yaml"
		}
		if format != "yaml" && format != "json" {
			return NewErrorResult("invalid_request", fmt.Sprintf("unknown format %q; use yaml or json", format)), nil
		}
		withSamples := format == "json" && req.GetBool("samples", false)

		snapshot, err := deps.Schemas.Snapshot(ctx, optionalString(req, "datasource"), optionalString(req, "schema"), withSamples)
		if err != nil {
			deps.Logger.Debug("get_schema failed", zap.Error(err))
			return serviceError(err, nil)
		}

		if format == "json" {
			return jsonResult(snapshot)
		}
		out, err := snapshot.YAML()
		if err != nil {
			return nil, fmt.Errorf("failed to render schema: %w", err)
		}
		return mcp.NewToolResultText(out), nil
	})
}

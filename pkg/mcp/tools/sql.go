package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	sqlutil "github.com/ekaya-inc/ekaya-askdb/pkg/sql"
)

type generateSQLResult struct {
	Datasource       string                     `json:"datasource"`
	Schema           string                     `json:"schema"`
	SQL              string                     `json:"sql"`
	Validation       *sqlutil.SchemaCheckResult `json:"validation,omitempty"`
	InjectionFlagged bool                       `json:"injection_flagged,omitempty"`
}

// RegisterGenerateSQLTool registers generate_sql, which turns a question
// into a validated query without running it.
func RegisterGenerateSQLTool(s ToolRegistrar, deps *Deps) {
	tool := mcp.NewTool(
		"generate_sql",
		mcp.WithDescription(
			"Generates a read-only SQL query answering a natural-language question. "+
				"The query is checked against the schema but not executed. "+
				"A query that references columns the schema does not have is returned "+
				"as a validation_failed error with the query in details.",
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer, e.g. 'which employees were hired after 2020?'"),
		),
		mcp.WithString("datasource", mcp.Description("Datasource name. Defaults to the first configured datasource")),
		mcp.WithString("schema", mcp.Description("Schema name. Defaults to the datasource's schema")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil || trimString(question) == "" {
			return NewErrorResult("invalid_request", "question is required"), nil
		}

		result, err := deps.Ask.GenerateSQL(ctx, optionalString(req, "datasource"), optionalString(req, "schema"), question)
		var out *generateSQLResult
		if result != nil {
			out = &generateSQLResult{
				Datasource:       result.Datasource,
				Schema:           result.Schema,
				SQL:              result.SQL,
				Validation:       result.Validation,
				InjectionFlagged: result.InjectionFlagged,
			}
		}
		if err != nil {
			if out != nil && out.SQL == "" {
				out = nil
			}
			return serviceError(err, out)
		}
		return jsonResult(out)
	})
}

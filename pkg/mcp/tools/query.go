package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

// maxToolRows bounds the rows returned to a model in one tool result.
const maxToolRows = 200

type queryResult struct {
	Columns   []models.ColumnInfo `json:"columns"`
	Rows      [][]any             `json:"rows"`
	RowCount  int                 `json:"row_count"`
	Returned  int                 `json:"returned"`
	Truncated bool                `json:"truncated,omitempty"`
}

func newQueryResult(result *models.ResultTable) *queryResult {
	if result == nil {
		return nil
	}
	head := result.Head(maxToolRows)
	rows := head.Rows
	if rows == nil {
		rows = [][]any{}
	}
	return &queryResult{
		Columns:   result.Columns,
		Rows:      rows,
		RowCount:  result.RowCount(),
		Returned:  len(rows),
		Truncated: result.Truncated || len(rows) < result.RowCount(),
	}
}

// RegisterRunQueryTool registers run_query, which executes one read-only
// SQL statement.
func RegisterRunQueryTool(s ToolRegistrar, deps *Deps) {
	tool := mcp.NewTool(
		"run_query",
		mcp.WithDescription(
			"Executes one read-only SQL statement (SELECT or WITH ... SELECT) and returns the rows. "+
				"Writes, DDL and multiple statements are rejected. "+
				"At most 200 rows are returned; row_count is the full count.",
		),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("The SQL statement to execute"),
		),
		mcp.WithString("datasource", mcp.Description("Datasource name. Defaults to the first configured datasource")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("sql")
		if err != nil || trimString(query) == "" {
			return NewErrorResult("invalid_request", "sql is required"), nil
		}

		result, err := deps.Queries.Execute(ctx, optionalString(req, "datasource"), query)
		if err != nil {
			return serviceError(err, nil)
		}
		return jsonResult(newQueryResult(result))
	})
}

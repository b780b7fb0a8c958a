package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
	sqlutil "github.com/ekaya-inc/ekaya-askdb/pkg/sql"
)

type askResult struct {
	SessionID        string                     `json:"session_id"`
	Mode             models.AskMode             `json:"mode"`
	Datasource       string                     `json:"datasource,omitempty"`
	SQL              string                     `json:"sql,omitempty"`
	Validation       *sqlutil.SchemaCheckResult `json:"validation,omitempty"`
	Result           *queryResult               `json:"result,omitempty"`
	RowCount         *int                       `json:"row_count,omitempty"`
	Reply            string                     `json:"reply,omitempty"`
	InjectionFlagged bool                       `json:"injection_flagged,omitempty"`
}

func newAskResult(r *services.AskResult) *askResult {
	if r == nil {
		return nil
	}
	out := &askResult{
		SessionID:        r.SessionID,
		Mode:             r.Mode,
		Datasource:       r.Datasource,
		SQL:              r.SQL,
		Validation:       r.Validation,
		Result:           newQueryResult(r.Result),
		Reply:            r.Reply,
		InjectionFlagged: r.InjectionFlagged,
	}
	if out.Result != nil {
		out.RowCount = &out.Result.RowCount
	}
	return out
}

// RegisterAskDatabaseTool registers ask_database, the full question to
// answer pipeline.
func RegisterAskDatabaseTool(s ToolRegistrar, deps *Deps) {
	tool := mcp.NewTool(
		"ask_database",
		mcp.WithDescription(
			"Answers a question about the database. mode=database (default) generates, validates "+
				"and runs SQL; showsql only generates it; narrate also summarizes the result in prose; "+
				"chat answers without touching the database. Pass session_id from a previous call to "+
				"continue the same conversation.",
		),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to answer")),
		mcp.WithString("mode",
			mcp.Description("database, showsql, narrate or chat"),
			mcp.Enum(string(models.AskModeDatabase), string(models.AskModeShowSQL), string(models.AskModeNarrate), string(models.AskModeChat)),
		),
		mcp.WithString("datasource", mcp.Description("Datasource name. Defaults to the first configured datasource")),
		mcp.WithString("schema", mcp.Description("Schema name. Defaults to the datasource's schema")),
		mcp.WithString("session_id", mcp.Description("Session to continue")),
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

		result, err := deps.Ask.Ask(ctx, services.AskRequest{
			SessionID:  optionalString(req, "session_id"),
			Datasource: optionalString(req, "datasource"),
			Schema:     optionalString(req, "schema"),
			Question:   question,
			Mode:       models.AskMode(optionalString(req, "mode")),
		})
		if err != nil {
			return serviceError(fmt.Errorf("ask_database: %w", err), newAskResult(result))
		}
		return jsonResult(newAskResult(result))
	})
}

package mcp

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/logging"
	"github.com/ekaya-inc/ekaya-askdb/pkg/metrics"
)

// ToolAuditor logs every MCP tool call with its sanitized arguments,
// outcome and duration, and records tool metrics.
type ToolAuditor struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

func NewToolAuditor(logger *zap.Logger) *ToolAuditor {
	return &ToolAuditor{logger: logger.Named("mcp-audit")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *ToolAuditor) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *ToolAuditor) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *ToolAuditor) afterCallTool(_ context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	elapsed := time.Since(a.loadAndDeleteStart(id))
	tool := req.Params.Name

	outcome := "ok"
	if result != nil && result.IsError {
		outcome = "tool_error"
	}
	metrics.ObserveMCPToolCall(tool, outcome, elapsed)

	fields := []zap.Field{
		zap.String("tool", tool),
		zap.String("outcome", outcome),
		zap.Any("arguments", sanitizeParams(req.GetArguments())),
		zap.Duration("duration", elapsed),
	}
	fields = append(fields, summarizeResult(result)...)
	a.logger.Info("MCP tool call", fields...)
}

func (a *ToolAuditor) onError(_ context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	elapsed := time.Since(a.loadAndDeleteStart(id))
	metrics.ObserveMCPToolCall(req.Params.Name, "error", elapsed)
	a.logger.Warn("MCP tool call failed",
		zap.String("tool", req.Params.Name),
		zap.Any("arguments", sanitizeParams(req.GetArguments())),
		zap.String("error", logging.SanitizeError(err)),
		zap.Duration("duration", elapsed))
}

func (a *ToolAuditor) loadAndDeleteStart(id any) time.Time {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time)
	}
	return time.Now()
}

var sqlStringLiteralPattern = regexp.MustCompile(`'(?:[^']|'')*'`)

// sanitizeParams keeps arguments readable in logs: SQL keeps its structure
// with string literals masked, questions are truncated.
func sanitizeParams(args map[string]any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		s, ok := v.(string)
		if !ok {
			out[k] = v
			continue
		}
		if isSQLParam(k) {
			out[k] = logging.SanitizeQuery(redactSQLStringLiterals(s))
			continue
		}
		out[k] = logging.SanitizePrompt(s)
	}
	return out
}

func isSQLParam(key string) bool {
	lower := strings.ToLower(key)
	return lower == "sql" || lower == "query" || strings.HasSuffix(lower, "_sql")
}

// redactSQLStringLiterals replaces string literal values in SQL with '***'.
func redactSQLStringLiterals(sql string) string {
	return sqlStringLiteralPattern.ReplaceAllString(sql, "'***'")
}

// summarizeResult returns log fields describing a tool result: the error
// code for failures and the row count for query results.
func summarizeResult(result *mcplib.CallToolResult) []zap.Field {
	if result == nil {
		return nil
	}
	for _, c := range result.Content {
		tc, ok := c.(mcplib.TextContent)
		if !ok {
			continue
		}
		var partial struct {
			Code     string `json:"code"`
			RowCount *int   `json:"row_count"`
		}
		if err := json.Unmarshal([]byte(tc.Text), &partial); err != nil {
			return nil
		}
		var fields []zap.Field
		if partial.Code != "" {
			fields = append(fields, zap.String("code", partial.Code))
		}
		if partial.RowCount != nil {
			fields = append(fields, zap.Int("row_count", *partial.RowCount))
		}
		return fields
	}
	return nil
}

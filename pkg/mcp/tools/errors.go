package tools

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-askdb/pkg/llm"
)

// ErrorResponse represents a structured error in tool results.
// Errors the caller can act on are returned as a successful tool result
// with IsError set, so the details reach the model instead of being
// swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
//
// Example:
//
//	if question == "" {
//	    return NewErrorResult("invalid_request", "question is required"), nil
//	}
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context,
// such as the generated SQL that failed validation.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// serviceError converts a service error into a tool result. Errors that
// map to no known code are returned as Go errors (protocol failures).
func serviceError(err error, details any) (*mcp.CallToolResult, error) {
	code := ErrorCode(err)
	if code == apperrors.CodeInternal {
		return nil, err
	}
	return NewErrorResultWithDetails(code, err.Error(), details), nil
}

// ErrorCode returns the tool error code for err. Query failures carrying a
// PostgreSQL SQLSTATE get a more specific code, model failures are
// prefixed with llm_.
func ErrorCode(err error) string {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return "llm_" + string(llmErr.Type)
	}
	code := apperrors.Code(err)
	if code == apperrors.CodeQueryFailed {
		if sqlCode := SQLUserErrorCode(err); sqlCode != "" {
			return sqlCode
		}
	}
	return code
}

// sqlStateRegex matches PostgreSQL SQLSTATE codes in error messages like "(SQLSTATE 42601)"
var sqlStateRegex = regexp.MustCompile(`\(SQLSTATE ([0-9A-Z]{5})\)`)

// SQLUserErrorCode returns an error code for a query that failed because of
// the SQL itself (bad syntax, unknown column, bad cast), or "" when the
// message carries no SQLSTATE of a user error class.
//
// PostgreSQL SQLSTATE class codes that indicate user errors:
//   - 22xxx: Data Exception (invalid input, division by zero)
//   - 42xxx: Syntax Error or Access Rule Violation
func SQLUserErrorCode(err error) string {
	if err == nil {
		return ""
	}
	matches := sqlStateRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return ""
	}
	switch matches[1][:2] {
	case "22", "42":
		return mapSQLStateToCode(matches[1])
	}
	return ""
}

func mapSQLStateToCode(sqlState string) string {
	switch sqlState {
	case "42601":
		return "syntax_error"
	case "42703":
		return "undefined_column"
	case "42P01":
		return "undefined_table"
	case "42883":
		return "undefined_function"
	case "42501":
		return "insufficient_privilege"
	case "22003":
		return "numeric_out_of_range"
	case "22007", "22008":
		return "invalid_datetime"
	case "22012":
		return "division_by_zero"
	case "22P02":
		return "invalid_input"
	}

	if strings.HasPrefix(sqlState, "22") {
		return "data_exception"
	}
	return "sql_error"
}

package sql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
)

// StatementType represents the type of SQL statement.
type StatementType string

const (
	StatementSelect  StatementType = "SELECT"
	StatementInsert  StatementType = "INSERT"
	StatementUpdate  StatementType = "UPDATE"
	StatementDelete  StatementType = "DELETE"
	StatementCall    StatementType = "CALL"
	StatementDDL     StatementType = "DDL"     // CREATE, ALTER, DROP, TRUNCATE
	StatementUnknown StatementType = "UNKNOWN" // unrecognized or blocked
)

// modifyingCTEPattern matches CTEs that contain data-modifying operations.
// Example: WITH deleted AS (DELETE FROM ...) SELECT * FROM deleted
var modifyingCTEPattern = regexp.MustCompile(`(?i)\bAS\s*(NOT\s+)?(MATERIALIZED\s*)?\(\s*(INSERT|UPDATE|DELETE|MERGE)\b`)

// DetectSQLType classifies a statement by its first keyword, ignoring
// leading comments and parentheses.
func DetectSQLType(query string) StatementType {
	tokens := Tokenize(query)
	first := ""
	for _, tok := range tokens {
		if tok.IsSymbol('(') {
			continue
		}
		if tok.Kind == TokenWord {
			first = strings.ToUpper(tok.Text)
		}
		break
	}

	switch first {
	case "SELECT", "VALUES", "TABLE":
		if selectsInto(tokens) {
			return StatementDDL
		}
		return StatementSelect

	case "WITH":
		if modifyingCTEPattern.MatchString(query) || selectsInto(tokens) {
			return StatementUnknown
		}
		return StatementSelect

	case "INSERT", "MERGE", "REPLACE", "UPSERT":
		return StatementInsert
	case "UPDATE":
		return StatementUpdate
	case "DELETE":
		return StatementDelete
	case "CALL", "EXEC", "EXECUTE":
		return StatementCall
	case "CREATE", "ALTER", "DROP", "TRUNCATE", "GRANT", "REVOKE", "RENAME":
		return StatementDDL
	default:
		return StatementUnknown
	}
}

// selectsInto detects SELECT ... INTO, which creates a table on both
// PostgreSQL and SQL Server.
func selectsInto(tokens []Token) bool {
	for _, tok := range tokens {
		if tok.IsKeyword("INTO") {
			return true
		}
	}
	return false
}

// RequireReadOnly returns an error wrapping apperrors.ErrReadOnly unless the
// statement is a plain query.
func RequireReadOnly(query string) error {
	if t := DetectSQLType(query); t != StatementSelect {
		return fmt.Errorf("%s statement rejected: %w", t, apperrors.ErrReadOnly)
	}
	return nil
}

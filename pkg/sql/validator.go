// Package sql checks model-generated SQL before it reaches a database.
package sql

import (
	"errors"
	"strings"
)

var (
	// ErrMultipleStatements indicates the query contains multiple SQL statements.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")

	// ErrEmptyStatement indicates nothing executable was left after normalization.
	ErrEmptyStatement = errors.New("empty SQL statement")
)

// ValidationResult contains the normalized SQL and any validation errors.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateAndNormalize rejects multi-statement input and strips trailing
// semicolons, including any comment that follows them. Semicolons inside
// literals, quoted identifiers and comments are ignored.
func ValidateAndNormalize(sqlQuery string) ValidationResult {
	sqlQuery = strings.TrimSpace(sqlQuery)

	tokens := Tokenize(sqlQuery)
	if len(tokens) == 0 {
		return ValidationResult{Error: ErrEmptyStatement}
	}

	// Drop trailing semicolons.
	end := len(tokens)
	for end > 0 && tokens[end-1].IsSymbol(';') {
		end--
	}
	if end == 0 {
		return ValidationResult{Error: ErrEmptyStatement}
	}

	for _, tok := range tokens[:end] {
		if tok.IsSymbol(';') {
			return ValidationResult{Error: ErrMultipleStatements}
		}
	}

	normalized := sqlQuery
	if end < len(tokens) {
		normalized = sqlQuery[:tokens[end].Pos]
	}
	normalized = strings.TrimRight(normalized, " \t\n\r")

	return ValidationResult{NormalizedSQL: normalized}
}

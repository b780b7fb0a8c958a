package sql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
)

// ValidationMode selects how generated SQL is checked against the schema.
type ValidationMode string

const (
	// ModeSubstring treats table and column names as case-insensitive
	// substrings of the query. Every column of a mentioned table must appear.
	ModeSubstring ValidationMode = "substring"
	// ModeTokens compares whole identifiers found outside literals and
	// comments, and resolves qualified references through aliases.
	ModeTokens ValidationMode = "tokens"
	// ModeOff skips the column check.
	ModeOff ValidationMode = "off"
)

// SelectStarPolicy decides how SELECT * queries are checked.
type SelectStarPolicy string

const (
	// SelectStarRequireOne accepts a mentioned table when at least one of its
	// real columns appears in the query.
	SelectStarRequireOne SelectStarPolicy = "require_one"
	// SelectStarExempt skips the column check for SELECT * queries.
	SelectStarExempt SelectStarPolicy = "exempt"
)

// CheckOptions configures CheckAgainstSchema.
type CheckOptions struct {
	Mode       ValidationMode
	SelectStar SelectStarPolicy
}

// MissingColumn is a known column of a mentioned table that the query does
// not reference. Column is "*" when a SELECT * query referenced none of the
// table's columns.
type MissingColumn struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// UnknownColumn is a qualified reference t.col where t resolves to a known
// table that has no column col.
type UnknownColumn struct {
	Qualifier string `json:"qualifier"`
	Column    string `json:"column"`
	Table     string `json:"table"`
}

// SchemaCheckResult reports the outcome of CheckAgainstSchema.
type SchemaCheckResult struct {
	Valid           bool            `json:"valid"`
	Mode            ValidationMode  `json:"mode"`
	SelectStar      bool            `json:"select_star"`
	MentionedTables []string        `json:"mentioned_tables"`
	Missing         []MissingColumn `json:"missing,omitempty"`
	Unknown         []UnknownColumn `json:"unknown,omitempty"`
}

// Summary describes the failures in one line, or returns "" when valid.
func (r *SchemaCheckResult) Summary() string {
	if r == nil || r.Valid {
		return ""
	}

	var parts []string
	for _, m := range r.Missing {
		if m.Column == "*" {
			parts = append(parts, fmt.Sprintf("no column of table %s is referenced", m.Table))
			continue
		}
		parts = append(parts, fmt.Sprintf("column %s of table %s is missing", m.Column, m.Table))
	}
	for _, u := range r.Unknown {
		parts = append(parts, fmt.Sprintf("%s.%s: table %s has no column %s", u.Qualifier, u.Column, u.Table, u.Column))
	}
	return strings.Join(parts, "; ")
}

// Err returns nil when the query passed, otherwise an error wrapping
// apperrors.ErrValidationFailed.
func (r *SchemaCheckResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	return fmt.Errorf("%s: %w", r.Summary(), apperrors.ErrValidationFailed)
}

// CheckAgainstSchema verifies that query only references columns known to
// belong to the tables it mentions. tables maps table name to column names.
// This is a heuristic: passing does not mean the query is correct.
func CheckAgainstSchema(query string, tables map[string][]string, opts CheckOptions) *SchemaCheckResult {
	if opts.Mode == "" {
		opts.Mode = ModeSubstring
	}
	if opts.SelectStar == "" {
		opts.SelectStar = SelectStarRequireOne
	}

	tokens := Tokenize(query)
	result := &SchemaCheckResult{
		Mode:            opts.Mode,
		SelectStar:      hasSelectStar(tokens),
		MentionedTables: []string{},
	}

	switch opts.Mode {
	case ModeOff:
		result.Valid = true
		return result
	case ModeTokens:
		checkTokens(result, tokens, tables, opts)
	default:
		checkSubstrings(result, query, tables, opts)
	}

	result.Valid = len(result.Missing) == 0 && len(result.Unknown) == 0
	return result
}

func checkSubstrings(result *SchemaCheckResult, query string, tables map[string][]string, opts CheckOptions) {
	lowered := strings.ToLower(query)

	for _, table := range sortedKeys(tables) {
		if !strings.Contains(lowered, strings.ToLower(table)) {
			continue
		}
		result.MentionedTables = append(result.MentionedTables, table)

		var present, absent []string
		for _, col := range tables[table] {
			if strings.Contains(lowered, strings.ToLower(col)) {
				present = append(present, col)
			} else {
				absent = append(absent, col)
			}
		}

		if result.SelectStar {
			if opts.SelectStar == SelectStarExempt {
				continue
			}
			if len(present) == 0 && len(tables[table]) > 0 {
				result.Missing = append(result.Missing, MissingColumn{Table: table, Column: "*"})
			}
			continue
		}

		for _, col := range absent {
			result.Missing = append(result.Missing, MissingColumn{Table: table, Column: col})
		}
	}
}

func checkTokens(result *SchemaCheckResult, tokens []Token, tables map[string][]string, opts CheckOptions) {
	byLower := make(map[string]string, len(tables))
	for name := range tables {
		byLower[strings.ToLower(name)] = name
	}

	idents := make(map[string]bool)
	for _, tok := range tokens {
		if tok.IsIdentifier() {
			idents[strings.ToLower(tok.Name)] = true
		}
	}

	for _, table := range sortedKeys(tables) {
		if !idents[strings.ToLower(table)] {
			continue
		}
		result.MentionedTables = append(result.MentionedTables, table)

		if result.SelectStar && opts.SelectStar == SelectStarExempt {
			continue
		}

		found := false
		for _, col := range tables[table] {
			if idents[strings.ToLower(col)] {
				found = true
				break
			}
		}
		if !found && len(tables[table]) > 0 {
			result.Missing = append(result.Missing, MissingColumn{Table: table, Column: "*"})
		}
	}

	aliases := tableAliases(tokens, byLower)
	for i := 0; i+2 < len(tokens); i++ {
		qual, dot, col := tokens[i], tokens[i+1], tokens[i+2]
		if !qual.IsIdentifier() || !dot.IsSymbol('.') || !col.IsIdentifier() {
			continue
		}
		// schema.table.col: the next iteration sees table.col
		if i+3 < len(tokens) && (tokens[i+3].IsSymbol('.') || tokens[i+3].IsSymbol('(')) {
			continue
		}
		if i > 0 && tokens[i-1].IsSymbol('.') {
			continue
		}

		qualLower := strings.ToLower(qual.Name)
		table, ok := aliases[qualLower]
		if !ok {
			table, ok = byLower[qualLower]
		}
		if !ok {
			continue
		}
		// schema.table, where the schema happens to share a table's name
		if _, isTable := byLower[strings.ToLower(col.Name)]; isTable {
			continue
		}
		if !containsFold(tables[table], col.Name) {
			result.Unknown = append(result.Unknown, UnknownColumn{Qualifier: qual.Name, Column: col.Name, Table: table})
		}
	}
}

// tableAliases maps lowercase aliases to table names for "t a" and "t AS a"
// where t is a known table.
func tableAliases(tokens []Token, byLower map[string]string) map[string]string {
	aliases := make(map[string]string)
	for i := 0; i+1 < len(tokens); i++ {
		if !tokens[i].IsIdentifier() {
			continue
		}
		table, ok := byLower[strings.ToLower(tokens[i].Name)]
		if !ok {
			continue
		}
		if i > 0 && tokens[i-1].IsSymbol('.') && i+1 < len(tokens) && tokens[i+1].IsSymbol('.') {
			continue
		}

		j := i + 1
		if tokens[j].IsKeyword("AS") {
			j++
		}
		if j >= len(tokens) || !tokens[j].IsIdentifier() {
			continue
		}
		if tokens[j].Kind == TokenWord && isClauseKeyword(tokens[j].Text) {
			continue
		}
		aliases[strings.ToLower(tokens[j].Name)] = table
	}
	return aliases
}

// hasSelectStar reports a * in a select list: after SELECT, DISTINCT, a comma
// or a qualifier dot.
func hasSelectStar(tokens []Token) bool {
	for i := 1; i < len(tokens); i++ {
		if !tokens[i].IsSymbol('*') {
			continue
		}
		prev := tokens[i-1]
		if prev.IsKeyword("SELECT") || prev.IsKeyword("DISTINCT") || prev.IsKeyword("ALL") || prev.IsSymbol('.') {
			return true
		}
		if prev.IsSymbol(',') && inSelectList(tokens, i) {
			return true
		}
	}
	return false
}

// inSelectList reports whether the token at i sits between a SELECT and its
// FROM at the same parenthesis depth.
func inSelectList(tokens []Token, i int) bool {
	depth := 0
	for j := i - 1; j >= 0; j-- {
		switch {
		case tokens[j].IsSymbol(')'):
			depth++
		case tokens[j].IsSymbol('('):
			if depth == 0 {
				return false
			}
			depth--
		case depth == 0 && tokens[j].IsKeyword("SELECT"):
			return true
		case depth == 0 && tokens[j].Kind == TokenWord && isClauseKeyword(tokens[j].Text):
			return false
		}
	}
	return false
}

var clauseKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "JOIN": true, "INNER": true,
	"LEFT": true, "RIGHT": true, "FULL": true, "OUTER": true, "CROSS": true,
	"NATURAL": true, "ON": true, "USING": true, "GROUP": true, "ORDER": true,
	"BY": true, "HAVING": true, "LIMIT": true, "OFFSET": true, "FETCH": true,
	"UNION": true, "INTERSECT": true, "EXCEPT": true, "WINDOW": true,
	"AS": true, "AND": true, "OR": true, "NOT": true, "SET": true, "VALUES": true,
	"TOP": true, "WITH": true, "LATERAL": true, "WHEN": true, "THEN": true,
	"ELSE": true, "END": true, "CASE": true, "IS": true, "IN": true,
}

func isClauseKeyword(word string) bool {
	return clauseKeywords[strings.ToUpper(word)]
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package sql

import (
	"strings"
)

// QualifySchema prefixes unqualified table references that follow FROM or
// JOIN with schema, so "FROM orders" becomes "FROM sales.orders". Already
// qualified names, subqueries, table functions and CTE names are left alone.
// Only names in knownTables are rewritten when knownTables is non-empty.
func QualifySchema(query, schema string, knownTables []string) string {
	if schema == "" {
		return query
	}

	known := make(map[string]bool, len(knownTables))
	for _, t := range knownTables {
		known[strings.ToLower(t)] = true
	}

	tokens := Tokenize(query)
	ctes := cteNames(tokens)

	var b strings.Builder
	last := 0
	for i := 0; i+1 < len(tokens); i++ {
		if !tokens[i].IsKeyword("FROM") && !tokens[i].IsKeyword("JOIN") {
			continue
		}
		name := tokens[i+1]
		if !name.IsIdentifier() || isReservedAfterFrom(name) {
			continue
		}
		// schema.table or table(...)
		if i+2 < len(tokens) && (tokens[i+2].IsSymbol('.') || tokens[i+2].IsSymbol('(')) {
			continue
		}
		lower := strings.ToLower(name.Name)
		if ctes[lower] {
			continue
		}
		if len(known) > 0 && !known[lower] {
			continue
		}

		b.WriteString(query[last:name.Pos])
		b.WriteString(quoteIfNeeded(schema))
		b.WriteByte('.')
		last = name.Pos
	}
	b.WriteString(query[last:])
	return b.String()
}

// cteNames collects names defined by WITH name AS (...).
func cteNames(tokens []Token) map[string]bool {
	names := make(map[string]bool)
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].IsIdentifier() && tokens[i+1].IsKeyword("AS") && i > 0 &&
			(tokens[i-1].IsKeyword("WITH") || tokens[i-1].IsSymbol(',') || tokens[i-1].IsKeyword("RECURSIVE")) {
			names[strings.ToLower(tokens[i].Name)] = true
		}
	}
	return names
}

func isReservedAfterFrom(tok Token) bool {
	if tok.Kind != TokenWord {
		return false
	}
	switch strings.ToUpper(tok.Text) {
	case "SELECT", "LATERAL", "UNNEST", "ONLY", "VALUES":
		return true
	}
	return false
}

func quoteIfNeeded(name string) string {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9' && i > 0)) {
			return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
		}
	}
	return name
}

package models

import "strings"

// ColumnInfo describes one column of a query result.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ResultTable is a fully materialized query result. Column and row order
// are those returned by the database.
type ResultTable struct {
	Columns []ColumnInfo `json:"columns"`
	Rows    [][]any      `json:"rows"`
	// Truncated is set when the executor stopped at its row cap.
	Truncated bool `json:"truncated,omitempty"`
}

// RowCount returns the number of rows.
func (r *ResultTable) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// ColumnNames returns the column names in result order.
func (r *ResultTable) ColumnNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the result has a column with the given name
// (case-insensitive).
func (r *ResultTable) HasColumn(name string) bool {
	if r == nil {
		return false
	}
	for _, c := range r.Columns {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// Head returns a copy of the result limited to the first n rows.
func (r *ResultTable) Head(n int) *ResultTable {
	if r == nil {
		return nil
	}
	if n < 0 || n > len(r.Rows) {
		n = len(r.Rows)
	}
	return &ResultTable{
		Columns: r.Columns,
		Rows:    r.Rows[:n],
	}
}

// RowMaps returns rows keyed by column name.
func (r *ResultTable) RowMaps() []map[string]any {
	if r == nil {
		return nil
	}
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]any, len(r.Columns))
		for j, c := range r.Columns {
			if j < len(row) {
				m[c.Name] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

package sql

import "testing"

func TestQualifySchema(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		schema   string
		known    []string
		expected string
	}{
		{
			name:     "from and join",
			query:    "SELECT * FROM orders o JOIN employees e ON o.customer = e.name",
			schema:   "sales",
			expected: "SELECT * FROM sales.orders o JOIN sales.employees e ON o.customer = e.name",
		},
		{
			name:     "already qualified",
			query:    "SELECT * FROM public.orders",
			schema:   "sales",
			expected: "SELECT * FROM public.orders",
		},
		{
			name:     "cte names are left alone",
			query:    "WITH recent AS (SELECT * FROM orders) SELECT * FROM recent",
			schema:   "sales",
			expected: "WITH recent AS (SELECT * FROM sales.orders) SELECT * FROM recent",
		},
		{
			name:     "subquery",
			query:    "SELECT * FROM (SELECT 1) x",
			schema:   "sales",
			expected: "SELECT * FROM (SELECT 1) x",
		},
		{
			name:     "table function",
			query:    "SELECT * FROM generate_series(1, 3)",
			schema:   "sales",
			expected: "SELECT * FROM generate_series(1, 3)",
		},
		{
			name:     "quoted table",
			query:    `SELECT * FROM "Orders"`,
			schema:   "sales",
			expected: `SELECT * FROM sales."Orders"`,
		},
		{
			name:     "schema needing quotes",
			query:    "SELECT * FROM orders",
			schema:   "Sales",
			expected: `SELECT * FROM "Sales".orders`,
		},
		{
			name:     "unknown tables skipped",
			query:    "SELECT * FROM recent_hires JOIN orders ON true",
			schema:   "hr",
			known:    []string{"orders"},
			expected: "SELECT * FROM recent_hires JOIN hr.orders ON true",
		},
		{
			name:     "empty schema",
			query:    "SELECT * FROM orders",
			schema:   "",
			expected: "SELECT * FROM orders",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QualifySchema(tt.query, tt.schema, tt.known); got != tt.expected {
				t.Errorf("QualifySchema() = %q, want %q", got, tt.expected)
			}
		})
	}
}

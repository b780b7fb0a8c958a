package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
)

func testTables() map[string][]string {
	return map[string][]string{
		"employees": {"id", "name", "department", "hire_date", "salary"},
		"orders":    {"order_id", "customer", "order_date", "amount"},
	}
}

func TestCheckAgainstSchema_SubstringMissingColumn(t *testing.T) {
	result := CheckAgainstSchema("SELECT order_id, customer, amount FROM orders", testTables(), CheckOptions{})

	assert.False(t, result.Valid)
	assert.Equal(t, ModeSubstring, result.Mode)
	assert.Equal(t, []string{"orders"}, result.MentionedTables)
	assert.Equal(t, []MissingColumn{{Table: "orders", Column: "order_date"}}, result.Missing)
	assert.Contains(t, result.Summary(), "order_date")

	err := result.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func TestCheckAgainstSchema_SubstringAllColumns(t *testing.T) {
	result := CheckAgainstSchema("select ORDER_ID, Customer, ORDER_DATE, amount from ORDERS", testTables(), CheckOptions{Mode: ModeSubstring})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Missing)
	assert.NoError(t, result.Err())
	assert.Equal(t, "", result.Summary())
}

// SQL identifiers fold case unless quoted, so the substring check does too.
func TestCheckAgainstSchema_SubstringIgnoresCase(t *testing.T) {
	tables := map[string][]string{"Customers": {"CustomerID", "FullName"}}

	result := CheckAgainstSchema("SELECT customerid, fullname FROM customers", tables, CheckOptions{})
	assert.True(t, result.Valid)
	assert.Equal(t, []string{"Customers"}, result.MentionedTables)

	result = CheckAgainstSchema("SELECT CUSTOMERID FROM CUSTOMERS", tables, CheckOptions{})
	assert.False(t, result.Valid)
	assert.Equal(t, []MissingColumn{{Table: "Customers", Column: "FullName"}}, result.Missing)
}

func TestCheckAgainstSchema_SelectStar(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		policy  SelectStarPolicy
		valid   bool
		missing []MissingColumn
	}{
		{
			name:   "star with one real column",
			query:  "SELECT * FROM orders WHERE order_date > '2024-01-01'",
			policy: SelectStarRequireOne,
			valid:  true,
		},
		{
			name:    "star with no real column",
			query:   "SELECT * FROM orders",
			policy:  SelectStarRequireOne,
			valid:   false,
			missing: []MissingColumn{{Table: "orders", Column: "*"}},
		},
		{
			name:   "star with no real column, exempt",
			query:  "SELECT * FROM orders",
			policy: SelectStarExempt,
			valid:  true,
		},
		{
			name:   "employees hired after 2020",
			query:  "SELECT * FROM employees WHERE hire_date > '2020-01-01'",
			policy: SelectStarRequireOne,
			valid:  true,
		},
		{
			name:   "qualified star",
			query:  "SELECT e.* FROM employees e WHERE e.salary > 100",
			policy: SelectStarRequireOne,
			valid:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckAgainstSchema(tt.query, testTables(), CheckOptions{SelectStar: tt.policy})
			assert.True(t, result.SelectStar)
			assert.Equal(t, tt.valid, result.Valid, result.Summary())
			assert.Equal(t, tt.missing, result.Missing)
		})
	}
}

func TestCheckAgainstSchema_NoKnownTable(t *testing.T) {
	result := CheckAgainstSchema("SELECT 1", testTables(), CheckOptions{})
	assert.True(t, result.Valid)
	assert.Empty(t, result.MentionedTables)
	assert.False(t, result.SelectStar)
}

func TestCheckAgainstSchema_CountStarIsNotSelectStar(t *testing.T) {
	result := CheckAgainstSchema("SELECT COUNT(*) FROM orders", testTables(), CheckOptions{})
	assert.False(t, result.SelectStar)
	assert.False(t, result.Valid)
	assert.Len(t, result.Missing, 4)
}

func TestCheckAgainstSchema_Off(t *testing.T) {
	result := CheckAgainstSchema("SELECT nonsense FROM orders", testTables(), CheckOptions{Mode: ModeOff})
	assert.True(t, result.Valid)
	assert.Equal(t, ModeOff, result.Mode)
}

func TestCheckAgainstSchema_Tokens(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		valid   bool
		missing []MissingColumn
		unknown []UnknownColumn
	}{
		{
			name:  "one column is enough",
			query: "SELECT name FROM employees",
			valid: true,
		},
		{
			name:  "aliases resolve to tables",
			query: "SELECT o.amount FROM orders AS o JOIN employees AS emp ON emp.name = o.customer",
			valid: true,
		},
		{
			name:    "unknown column through alias",
			query:   "SELECT e.name, e.bonus FROM employees e",
			valid:   false,
			unknown: []UnknownColumn{{Qualifier: "e", Column: "bonus", Table: "employees"}},
		},
		{
			name:    "unknown column through table name",
			query:   "SELECT orders.total FROM orders WHERE orders.amount > 1",
			valid:   false,
			unknown: []UnknownColumn{{Qualifier: "orders", Column: "total", Table: "orders"}},
		},
		{
			name:    "column only inside a literal",
			query:   "SELECT 'order_date' FROM orders",
			valid:   false,
			missing: []MissingColumn{{Table: "orders", Column: "*"}},
		},
		{
			name:  "schema qualified table",
			query: "SELECT amount FROM public.orders",
			valid: true,
		},
		{
			name:  "quoted identifiers",
			query: `SELECT "hire_date" FROM "employees"`,
			valid: true,
		},
		{
			name:  "table name as a substring does not count",
			query: "SELECT 1 FROM employees_archive",
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckAgainstSchema(tt.query, testTables(), CheckOptions{Mode: ModeTokens})
			assert.Equal(t, tt.valid, result.Valid, result.Summary())
			assert.Equal(t, tt.missing, result.Missing)
			assert.Equal(t, tt.unknown, result.Unknown)
		})
	}
}

func TestCheckAgainstSchema_TokensSelectStarExempt(t *testing.T) {
	result := CheckAgainstSchema("SELECT * FROM orders", testTables(), CheckOptions{Mode: ModeTokens, SelectStar: SelectStarExempt})
	assert.True(t, result.Valid)
	assert.Equal(t, []string{"orders"}, result.MentionedTables)
}

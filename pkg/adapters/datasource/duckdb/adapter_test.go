//go:build duckdb || all_adapters

package duckdb

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-askdb/pkg/config"
	"github.com/ekaya-inc/ekaya-askdb/pkg/testhelpers"
)

func newSeededAdapter(t *testing.T) *Adapter {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range testhelpers.SeedStatements {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return NewAdapterFromDB(db, nil)
}

func TestAdapter_Introspection(t *testing.T) {
	a := newSeededAdapter(t)
	ctx := context.Background()

	tables, err := a.ListTables(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, []string{"employees", "orders"}, tables)

	cols, err := a.ListColumns(ctx, "main", "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "customer", "order_date", "amount"}, cols)
}

func TestAdapter_Execute(t *testing.T) {
	a := newSeededAdapter(t)

	result, err := a.Execute(context.Background(), "SELECT SUM(amount) AS total FROM orders", 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.RowCount())
	assert.InDelta(t, 547.85, result.Rows[0][0], 0.001)
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, "", buildDSN(&config.DatasourceConfig{}))
	assert.Equal(t, "/data/w.duckdb?access_mode=read_only", buildDSN(&config.DatasourceConfig{Path: "/data/w.duckdb"}))
}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/config"
	"github.com/ekaya-inc/ekaya-askdb/pkg/testhelpers"
)

func newSeededAdapter(t *testing.T) *Adapter {
	t.Helper()
	return NewAdapterFromDB(testhelpers.NewSQLiteDB(t), zaptest.NewLogger(t))
}

func TestAdapter_ListTables_ExcludesViews(t *testing.T) {
	a := newSeededAdapter(t)

	tables, err := a.ListTables(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"employees", "orders"}, tables)
}

func TestAdapter_ListTables_Empty(t *testing.T) {
	a := NewAdapterFromDB(testhelpers.NewEmptySQLiteDB(t), nil)

	tables, err := a.ListTables(context.Background(), "main")
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestAdapter_ListColumns(t *testing.T) {
	a := newSeededAdapter(t)
	ctx := context.Background()

	cols, err := a.ListColumns(ctx, "main", "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "customer", "order_date", "amount"}, cols)

	_, err = a.ListColumns(ctx, "main", "missing")
	assert.Error(t, err)
}

func TestAdapter_SampleRows(t *testing.T) {
	a := newSeededAdapter(t)

	result, err := a.SampleRows(context.Background(), "", "employees", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RowCount())
	assert.Equal(t, []string{"id", "name", "department", "hire_date", "salary"}, result.ColumnNames())
}

func TestAdapter_Execute(t *testing.T) {
	a := newSeededAdapter(t)
	ctx := context.Background()

	result, err := a.Execute(ctx, "SELECT name FROM employees WHERE hire_date > '2020-01-01' ORDER BY name", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, result.ColumnNames())
	require.Equal(t, 2, result.RowCount())
	assert.Equal(t, "Bruno", result.Rows[0][0])
	assert.Equal(t, "Carla", result.Rows[1][0])

	capped, err := a.Execute(ctx, "SELECT * FROM orders", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, capped.RowCount())
	assert.True(t, capped.Truncated)

	_, err = a.Execute(ctx, "SELECT nope FROM employees", 0)
	assert.Error(t, err)
}

func TestNewAdapter_FileIsQueryOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "askdb.db")

	// Create the file with a writable connection first.
	writable, err := NewAdapter(context.Background(), &config.DatasourceConfig{
		Name: "setup", Path: path, Options: map[string]string{"query_only": "false"},
	}, datasource.PoolOptions{}, nil)
	require.NoError(t, err)
	_, err = writable.db.Exec("CREATE TABLE t (x INTEGER)")
	require.NoError(t, err)
	require.NoError(t, writable.Close())

	a, err := NewAdapter(context.Background(), &config.DatasourceConfig{Name: "local", Path: path}, datasource.PoolOptions{MaxConns: 2}, nil)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Ping(context.Background()))
	tables, err := a.ListTables(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, tables)

	_, err = a.Execute(context.Background(), "INSERT INTO t VALUES (1) RETURNING x", 0)
	assert.Error(t, err, "query_only connections must reject writes")
}

func TestNewAdapter_RequiresPath(t *testing.T) {
	_, err := NewAdapter(context.Background(), &config.DatasourceConfig{Name: "x"}, datasource.PoolOptions{}, nil)
	assert.ErrorContains(t, err, "path is required")
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, ":memory:", buildDSN(&config.DatasourceConfig{Path: ":memory:"}))

	dsn := buildDSN(&config.DatasourceConfig{Path: "/data/app.db"})
	assert.Contains(t, dsn, "file:/data/app.db?")
	assert.Contains(t, dsn, "query_only%281%29")
	assert.Contains(t, dsn, "busy_timeout%285000%29")
}

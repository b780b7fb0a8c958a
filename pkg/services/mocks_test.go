package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	"github.com/ekaya-inc/ekaya-askdb/pkg/testhelpers"
)

// ============================================================================
// Catalog
// ============================================================================

// staticCatalog serves one database under one name.
type staticCatalog struct {
	name   string
	schema string
	db     datasource.Database
}

func (c *staticCatalog) Get(ctx context.Context, name string) (datasource.Database, error) {
	if name != c.name {
		return nil, fmt.Errorf("datasource %q: %w", name, apperrors.ErrNotFound)
	}
	return c.db, nil
}

func (c *staticCatalog) Datasources() []datasource.DatasourceSummary {
	return []datasource.DatasourceSummary{{Name: c.name, Type: "sqlite", Schema: c.schema, Available: true, Connected: true}}
}

// newSQLiteDatasources returns a DatasourceService over a seeded in-memory
// SQLite database named "test".
func newSQLiteDatasources(t *testing.T) DatasourceService {
	t.Helper()
	return newSQLiteDatasourcesFrom(t, testhelpers.NewSQLiteDB(t))
}

func newSQLiteDatasourcesFrom(t *testing.T, db *sql.DB) DatasourceService {
	t.Helper()
	adapter := sqlite.NewAdapterFromDB(db, zap.NewNop())
	return NewDatasourceService(&staticCatalog{name: "test", db: adapter}, zap.NewNop())
}

// ============================================================================
// Database
// ============================================================================

// mockDatabase is a configurable datasource.Database.
type mockDatabase struct {
	tables  []string
	columns map[string][]string
	samples map[string]*models.ResultTable
	result  *models.ResultTable

	listTablesErr  error
	listColumnsErr map[string]error
	sampleErr      map[string]error
	executeErr     error

	// Capture for verification
	executed     []string
	executedRows []int
}

func (m *mockDatabase) Dialect() string       { return "PostgreSQL" }
func (m *mockDatabase) DefaultSchema() string { return "public" }

func (m *mockDatabase) ListTables(ctx context.Context, schema string) ([]string, error) {
	if m.listTablesErr != nil {
		return nil, m.listTablesErr
	}
	return m.tables, nil
}

func (m *mockDatabase) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	if err := m.listColumnsErr[table]; err != nil {
		return nil, err
	}
	return m.columns[table], nil
}

func (m *mockDatabase) SampleRows(ctx context.Context, schema, table string, limit int) (*models.ResultTable, error) {
	if err := m.sampleErr[table]; err != nil {
		return nil, err
	}
	return m.samples[table], nil
}

func (m *mockDatabase) Execute(ctx context.Context, query string, maxRows int) (*models.ResultTable, error) {
	m.executed = append(m.executed, query)
	m.executedRows = append(m.executedRows, maxRows)
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	return m.result, nil
}

func (m *mockDatabase) Ping(ctx context.Context) error { return nil }
func (m *mockDatabase) Close() error                   { return nil }

func newMockDatasources(db *mockDatabase) DatasourceService {
	return NewDatasourceService(&staticCatalog{name: "mock", db: db}, zap.NewNop())
}

// ============================================================================
// Plot runner
// ============================================================================

type mockRunner struct {
	image []byte
	err   error
	code  string
}

func (r *mockRunner) Run(ctx context.Context, code string, data *models.ResultTable) ([]byte, error) {
	r.code = code
	return r.image, r.err
}

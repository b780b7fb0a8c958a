package datasource

import (
	"context"

	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

// Database is the capability set every backend provides.
// Implementations own a connection pool and are safe for concurrent use.
type Database interface {
	// Dialect names the SQL dialect for prompts ("PostgreSQL", "SQLite", ...).
	Dialect() string

	// DefaultSchema is used when neither the request nor the configuration names one.
	DefaultSchema() string

	// ListTables returns the base tables of a schema, sorted by name.
	ListTables(ctx context.Context, schema string) ([]string, error)

	// ListColumns returns a table's columns in ordinal order.
	ListColumns(ctx context.Context, schema, table string) ([]string, error)

	// SampleRows returns at most limit rows of a table.
	SampleRows(ctx context.Context, schema, table string, limit int) (*models.ResultTable, error)

	// Execute runs a query and materializes its result. maxRows <= 0 means no cap.
	Execute(ctx context.Context, query string, maxRows int) (*models.ResultTable, error)

	// Ping checks the connection.
	Ping(ctx context.Context) error

	// Close releases the pool.
	Close() error
}

// Provider hands out open databases by datasource name.
type Provider interface {
	Get(ctx context.Context, name string) (Database, error)
}

// Catalog is a Provider that can also list what it provides.
type Catalog interface {
	Provider
	Datasources() []DatasourceSummary
}

var _ Catalog = (*ConnectionManager)(nil)

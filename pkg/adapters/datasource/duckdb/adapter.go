//go:build duckdb || all_adapters

// Package duckdb implements datasource.Database for DuckDB files and
// in-process analytical databases. Requires cgo.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/marcboeker/go-duckdb/v2"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/config"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

const defaultSchema = "main"

// Adapter provides DuckDB access through database/sql.
type Adapter struct {
	db     *sql.DB
	logger *zap.Logger
}

// buildDSN opens files read-only unless the datasource sets access_mode.
func buildDSN(cfg *config.DatasourceConfig) string {
	if cfg.Path == "" || cfg.Path == ":memory:" {
		return ""
	}
	return cfg.Path + "?access_mode=" + cfg.Option("access_mode", "read_only")
}

// NewAdapter opens the DuckDB database named by cfg.Path (empty for in-memory).
func NewAdapter(ctx context.Context, cfg *config.DatasourceConfig, opts datasource.PoolOptions, logger *zap.Logger) (*Adapter, error) {
	db, err := sql.Open("duckdb", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open duckdb database: %w", err)
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(int(opts.MaxConns))
	}
	return NewAdapterFromDB(db, logger), nil
}

// NewAdapterFromDB wraps an existing *sql.DB opened with the duckdb driver.
func NewAdapterFromDB(db *sql.DB, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{db: db, logger: logger.Named("duckdb")}
}

func (a *Adapter) Dialect() string       { return "DuckDB" }
func (a *Adapter) DefaultSchema() string { return defaultSchema }

// ListTables returns the base tables of a schema.
func (a *Adapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE' AND table_schema = ?
		ORDER BY table_name`

	rows, err := a.db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()
	return datasource.ScanStrings(rows)
}

// ListColumns returns a table's columns in ordinal order.
func (a *Adapter) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	const query = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := a.db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", table, err)
	}
	defer rows.Close()
	return datasource.ScanStrings(rows)
}

// SampleRows reads the first limit rows of a table.
func (a *Adapter) SampleRows(ctx context.Context, schema, table string, limit int) (*models.ResultTable, error) {
	query := fmt.Sprintf("SELECT * FROM %s.%s LIMIT %d", quoteIdent(schema), quoteIdent(table), limit)
	return a.Execute(ctx, query, 0)
}

// Execute runs a query and materializes its result.
func (a *Adapter) Execute(ctx context.Context, query string, maxRows int) (*models.ResultTable, error) {
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()
	return datasource.ScanRows(rows, maxRows, convertValue)
}

func convertValue(dbType string, v any) any {
	switch val := v.(type) {
	case duckdb.Decimal:
		return val.Float64()
	case duckdb.Interval:
		return fmt.Sprintf("%d months %d days %dus", val.Months, val.Days, val.Micros)
	default:
		return datasource.ConvertValue(dbType, v)
	}
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var _ datasource.Database = (*Adapter)(nil)

// Package sqlite implements datasource.Database on the pure-Go modernc SQLite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/config"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

const defaultSchema = "main"

// Adapter provides SQLite access through database/sql.
type Adapter struct {
	db     *sql.DB
	logger *zap.Logger
}

// buildDSN turns a path into a modernc DSN. File databases are opened with
// query_only so the connection cannot write even if a statement slips through.
func buildDSN(cfg *config.DatasourceConfig) string {
	path := cfg.Path
	if path == "" || path == ":memory:" {
		return ":memory:"
	}

	q := url.Values{}
	q.Add("_pragma", "busy_timeout("+cfg.Option("busy_timeout", "5000")+")")
	if cfg.Option("query_only", "true") == "true" {
		q.Add("_pragma", "query_only(1)")
	}
	return "file:" + path + "?" + q.Encode()
}

// NewAdapter opens the SQLite database named by cfg.Path.
func NewAdapter(ctx context.Context, cfg *config.DatasourceConfig, opts datasource.PoolOptions, logger *zap.Logger) (*Adapter, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite datasource %q: path is required", cfg.Name)
	}

	dsn := buildDSN(cfg)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if opts.MaxConns > 0 {
		db.SetMaxOpenConns(int(opts.MaxConns))
	}

	return NewAdapterFromDB(db, logger), nil
}

// NewAdapterFromDB wraps an existing *sql.DB opened with the sqlite driver.
func NewAdapterFromDB(db *sql.DB, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{db: db, logger: logger.Named("sqlite")}
}

func (a *Adapter) Dialect() string       { return "SQLite" }
func (a *Adapter) DefaultSchema() string { return defaultSchema }

// ListTables returns the tables of an attached database ("main" by default).
func (a *Adapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT name FROM %s.sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%%'
		ORDER BY name`, quoteIdent(schemaOrMain(schema)))

	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()
	return datasource.ScanStrings(rows)
}

// ListColumns returns a table's columns in declaration order.
func (a *Adapter) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	const query = `SELECT name FROM pragma_table_info(?, ?) ORDER BY cid`

	rows, err := a.db.QueryContext(ctx, query, table, schemaOrMain(schema))
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := datasource.ScanStrings(rows)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return cols, nil
}

// SampleRows reads the first limit rows of a table.
func (a *Adapter) SampleRows(ctx context.Context, schema, table string, limit int) (*models.ResultTable, error) {
	query := fmt.Sprintf("SELECT * FROM %s.%s LIMIT %d", quoteIdent(schemaOrMain(schema)), quoteIdent(table), limit)
	return a.Execute(ctx, query, 0)
}

// Execute runs a query and materializes its result.
func (a *Adapter) Execute(ctx context.Context, query string, maxRows int) (*models.ResultTable, error) {
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()
	return datasource.ScanRows(rows, maxRows, nil)
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

func schemaOrMain(schema string) string {
	if schema == "" {
		return defaultSchema
	}
	return schema
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var _ datasource.Database = (*Adapter)(nil)

// Package mssql implements datasource.Database for Microsoft SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	mssqldb "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/config"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
)

const (
	defaultPort              = 1433
	defaultSchema            = "dbo"
	defaultConnectionTimeout = 30
)

// Adapter provides SQL Server access through database/sql.
type Adapter struct {
	db     *sql.DB
	logger *zap.Logger
}

// buildConnectionString builds a sqlserver:// URL using SQL authentication.
// Driver options (encrypt, TrustServerCertificate, ...) come from the
// datasource's options map.
func buildConnectionString(cfg *config.DatasourceConfig) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	query := url.Values{}
	query.Add("database", cfg.Database)
	query.Add("encrypt", cfg.Option("encrypt", "true"))
	if trust := cfg.Option("trust_server_certificate", ""); trust != "" {
		query.Add("TrustServerCertificate", trust)
	}
	query.Add("connection timeout", cfg.Option("connection_timeout", strconv.Itoa(defaultConnectionTimeout)))
	query.Add("app name", "ekaya-askdb")

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", config.ResolveHostForDocker(cfg.Host), port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// NewAdapter opens a SQL Server pool for the datasource.
func NewAdapter(ctx context.Context, cfg *config.DatasourceConfig, opts datasource.PoolOptions, logger *zap.Logger) (*Adapter, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("sqlserver datasource %q: host is required", cfg.Name)
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("sqlserver datasource %q: database is required", cfg.Name)
	}

	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(int(opts.MaxConns))
	}
	if opts.MinConns > 0 {
		db.SetMaxIdleConns(int(opts.MinConns))
	}
	if opts.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.MaxIdleTime)
	}

	return NewAdapterFromDB(db, logger), nil
}

// NewAdapterFromDB wraps an existing *sql.DB.
func NewAdapterFromDB(db *sql.DB, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{db: db, logger: logger.Named("sqlserver")}
}

func (a *Adapter) Dialect() string       { return "SQL Server (T-SQL)" }
func (a *Adapter) DefaultSchema() string { return defaultSchema }

// ListTables returns the base tables of a schema.
func (a *Adapter) ListTables(ctx context.Context, schema string) ([]string, error) {
	const query = `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = @p1
		ORDER BY TABLE_NAME`

	rows, err := a.db.QueryContext(ctx, query, sql.Named("p1", schema))
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()
	return datasource.ScanStrings(rows)
}

// ListColumns returns a table's columns in ordinal order.
func (a *Adapter) ListColumns(ctx context.Context, schema, table string) ([]string, error) {
	const query = `
		SELECT COLUMN_NAME
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION`

	rows, err := a.db.QueryContext(ctx, query, sql.Named("p1", schema), sql.Named("p2", table))
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", table, err)
	}
	defer rows.Close()
	return datasource.ScanStrings(rows)
}

// SampleRows reads TOP (limit) rows of a table.
func (a *Adapter) SampleRows(ctx context.Context, schema, table string, limit int) (*models.ResultTable, error) {
	query := fmt.Sprintf("SELECT TOP (%d) * FROM %s", limit, buildFullyQualifiedName(schema, table))
	return a.Execute(ctx, query, 0)
}

// Execute runs a query and materializes its result.
func (a *Adapter) Execute(ctx context.Context, query string, maxRows int) (*models.ResultTable, error) {
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	result, err := datasource.ScanRows(rows, maxRows, convertValue)
	if err != nil {
		return nil, err
	}
	for i := range result.Columns {
		result.Columns[i].Type = mapSQLServerType(result.Columns[i].Type)
	}
	return result, nil
}

// convertValue renders UNIQUEIDENTIFIER bytes in SQL Server's mixed-endian
// layout; everything else follows the default conversion.
func convertValue(dbType string, v any) any {
	if dbType == "UNIQUEIDENTIFIER" {
		if b, ok := v.([]byte); ok {
			var id mssqldb.UniqueIdentifier
			if err := id.Scan(b); err == nil {
				return id.String()
			}
		}
	}
	return datasource.ConvertValue(dbType, v)
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

var _ datasource.Database = (*Adapter)(nil)

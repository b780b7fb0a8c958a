//go:build duckdb || all_adapters

package duckdb

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/config"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        "duckdb",
			DisplayName: "DuckDB",
			Description: "DuckDB database files (cgo build)",
		},
		Factory: func(ctx context.Context, cfg *config.DatasourceConfig, opts datasource.PoolOptions, logger *zap.Logger) (datasource.Database, error) {
			return NewAdapter(ctx, cfg, opts, logger)
		},
	})
}

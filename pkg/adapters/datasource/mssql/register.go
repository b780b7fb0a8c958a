package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/config"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        "sqlserver",
			DisplayName: "Microsoft SQL Server",
			Description: "SQL Server 2019+, Azure SQL Database",
		},
		Aliases: []string{"mssql"},
		Factory: func(ctx context.Context, cfg *config.DatasourceConfig, opts datasource.PoolOptions, logger *zap.Logger) (datasource.Database, error) {
			return NewAdapter(ctx, cfg, opts, logger)
		},
	})
}

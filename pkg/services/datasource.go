package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-askdb/pkg/logging"
)

// DatasourceService resolves datasource names to open databases.
type DatasourceService interface {
	// List returns the configured datasources in configuration order.
	List(ctx context.Context) []datasource.DatasourceSummary

	// Open returns the database for name (the default datasource when
	// empty) together with the schema to use when a request names none.
	Open(ctx context.Context, name string) (*OpenDatasource, error)

	// TestConnection opens and pings a datasource.
	TestConnection(ctx context.Context, name string) error
}

// OpenDatasource is a database checked out for one request.
type OpenDatasource struct {
	Name   string
	Schema string
	DB     datasource.Database
}

// ResolveSchema returns schema, or the datasource's default when empty.
func (o *OpenDatasource) ResolveSchema(schema string) string {
	if schema != "" {
		return schema
	}
	return o.Schema
}

type datasourceService struct {
	catalog datasource.Catalog
	logger  *zap.Logger
}

// NewDatasourceService creates a datasource service over a catalog,
// usually the ConnectionManager.
func NewDatasourceService(catalog datasource.Catalog, logger *zap.Logger) DatasourceService {
	return &datasourceService{
		catalog: catalog,
		logger:  logger.Named("datasources"),
	}
}

func (s *datasourceService) List(ctx context.Context) []datasource.DatasourceSummary {
	return s.catalog.Datasources()
}

func (s *datasourceService) Open(ctx context.Context, name string) (*OpenDatasource, error) {
	summary, err := s.lookup(name)
	if err != nil {
		return nil, err
	}

	db, err := s.catalog.Get(ctx, summary.Name)
	if err != nil {
		s.logger.Error("Failed to open datasource",
			zap.String("datasource", summary.Name),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("open datasource %s: %w", summary.Name, err)
	}

	schema := summary.Schema
	if schema == "" {
		schema = db.DefaultSchema()
	}

	return &OpenDatasource{Name: summary.Name, Schema: schema, DB: db}, nil
}

func (s *datasourceService) TestConnection(ctx context.Context, name string) error {
	ds, err := s.Open(ctx, name)
	if err != nil {
		return err
	}
	if err := ds.DB.Ping(ctx); err != nil {
		return fmt.Errorf("ping datasource %s: %w", ds.Name, err)
	}
	return nil
}

func (s *datasourceService) lookup(name string) (datasource.DatasourceSummary, error) {
	all := s.catalog.Datasources()
	if len(all) == 0 {
		return datasource.DatasourceSummary{}, fmt.Errorf("no datasource configured: %w", apperrors.ErrServiceUnavailable)
	}
	if name == "" {
		return all[0], nil
	}
	for _, ds := range all {
		if ds.Name == name {
			return ds, nil
		}
	}
	return datasource.DatasourceSummary{}, fmt.Errorf("datasource %q: %w", name, apperrors.ErrNotFound)
}

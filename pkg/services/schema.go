package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/logging"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	"github.com/ekaya-inc/ekaya-askdb/pkg/telemetry"
)

// DefaultSampleRows is how many rows per table go into the SQL prompt.
const DefaultSampleRows = 5

// SchemaService introspects datasources.
type SchemaService interface {
	// Snapshot lists the base tables of a schema with their columns and,
	// when withSamples is set, a few rows of each. The result is built
	// fresh on every call.
	Snapshot(ctx context.Context, datasourceName, schema string, withSamples bool) (*models.SchemaSnapshot, error)
}

type schemaService struct {
	datasources DatasourceService
	sampleRows  int
	logger      *zap.Logger
}

// NewSchemaService creates a schema service. sampleRows <= 0 uses DefaultSampleRows.
func NewSchemaService(datasources DatasourceService, sampleRows int, logger *zap.Logger) SchemaService {
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	return &schemaService{
		datasources: datasources,
		sampleRows:  sampleRows,
		logger:      logger.Named("schema"),
	}
}

// Snapshot runs one table listing, then one column query per table and
// optionally one sample query per table. A table whose column query fails
// is kept with its Error set; a failed sample query leaves Samples nil.
// Only a failed table listing fails the snapshot.
func (s *schemaService) Snapshot(ctx context.Context, datasourceName, schema string, withSamples bool) (*models.SchemaSnapshot, error) {
	ctx, span := telemetry.StartSpan(ctx, "schema.snapshot")
	defer span.End()

	ds, err := s.datasources.Open(ctx, datasourceName)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	schema = ds.ResolveSchema(schema)
	span.SetAttributes(telemetry.AttrDatasource.String(ds.Name), telemetry.AttrSchema.String(schema))

	tables, err := ds.DB.ListTables(ctx, schema)
	if err != nil {
		s.logger.Error("Failed to list tables",
			zap.String("datasource", ds.Name),
			zap.String("schema", schema),
			zap.String("error", logging.SanitizeError(err)))
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("list tables of %s: %w", schema, err)
	}

	snapshot := &models.SchemaSnapshot{
		Datasource: ds.Name,
		Schema:     schema,
		Dialect:    ds.DB.Dialect(),
		Tables:     make([]models.TableSnapshot, 0, len(tables)),
	}

	for _, table := range tables {
		ts := models.TableSnapshot{Name: table}

		columns, err := ds.DB.ListColumns(ctx, schema, table)
		if err != nil {
			s.logger.Warn("Failed to list columns",
				zap.String("table", table),
				zap.String("error", logging.SanitizeError(err)))
			ts.Error = logging.SanitizeError(err)
			snapshot.Tables = append(snapshot.Tables, ts)
			continue
		}
		ts.Columns = columns

		if withSamples {
			samples, err := ds.DB.SampleRows(ctx, schema, table, s.sampleRows)
			if err != nil {
				s.logger.Warn("Failed to read sample rows",
					zap.String("table", table),
					zap.String("error", logging.SanitizeError(err)))
			} else {
				ts.Samples = samples
			}
		}

		snapshot.Tables = append(snapshot.Tables, ts)
	}

	span.SetAttributes(telemetry.AttrTableCount.Int(len(snapshot.Tables)))
	s.logger.Debug("Schema snapshot",
		zap.String("datasource", ds.Name),
		zap.String("schema", schema),
		zap.Int("tables", len(snapshot.Tables)))

	return snapshot, nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-askdb/pkg/audit"
	"github.com/ekaya-inc/ekaya-askdb/pkg/logging"
	"github.com/ekaya-inc/ekaya-askdb/pkg/metrics"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-askdb/pkg/sql"
	"github.com/ekaya-inc/ekaya-askdb/pkg/telemetry"
)

// QueryService executes read-only SQL.
type QueryService interface {
	// Execute runs one read-only statement and materializes every row
	// (up to the configured cap). On any database error it returns nil
	// and an error wrapping apperrors.ErrQueryFailed.
	Execute(ctx context.Context, datasourceName, query string) (*models.ResultTable, error)
}

// QueryOptions bounds execution.
type QueryOptions struct {
	MaxRows int           // 0 = no cap
	Timeout time.Duration // 0 = request context only
	Auditor *audit.SecurityAuditor
}

type queryService struct {
	datasources DatasourceService
	opts        QueryOptions
	logger      *zap.Logger
}

// NewQueryService creates a query service.
func NewQueryService(datasources DatasourceService, opts QueryOptions, logger *zap.Logger) QueryService {
	return &queryService{
		datasources: datasources,
		opts:        opts,
		logger:      logger.Named("query"),
	}
}

func (s *queryService) Execute(ctx context.Context, datasourceName, query string) (*models.ResultTable, error) {
	ctx, span := telemetry.StartSpan(ctx, "query.execute")
	defer span.End()

	normalized := sqlutil.ValidateAndNormalize(query)
	if normalized.Error != nil {
		telemetry.RecordError(span, normalized.Error)
		return nil, fmt.Errorf("%v: %w", normalized.Error, apperrors.ErrValidationFailed)
	}
	query = normalized.NormalizedSQL

	if err := sqlutil.RequireReadOnly(query); err != nil {
		s.opts.Auditor.LogWriteRejected(ctx, datasourceName, query, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	ds, err := s.datasources.Open(ctx, datasourceName)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(telemetry.AttrDatasource.String(ds.Name))

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := ds.DB.Execute(ctx, query, s.opts.MaxRows)
	elapsed := time.Since(start)

	if err != nil {
		metrics.ObserveQuery(ds.Name, elapsed, 0, err)
		s.logger.Error("Query failed",
			zap.String("datasource", ds.Name),
			zap.String("sql", logging.SanitizeQuery(query)),
			zap.String("error", logging.SanitizeError(err)),
			zap.Duration("elapsed", elapsed))
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("%s: %w", logging.SanitizeError(err), apperrors.ErrQueryFailed)
	}

	metrics.ObserveQuery(ds.Name, elapsed, result.RowCount(), nil)
	span.SetAttributes(telemetry.AttrRowCount.Int(result.RowCount()))

	if result.Truncated {
		s.logger.Info("Result truncated at row cap",
			zap.String("datasource", ds.Name),
			zap.Int("max_rows", s.opts.MaxRows))
	}

	return result, nil
}

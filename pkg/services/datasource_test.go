package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
)

func TestDatasourceService_OpenDefault(t *testing.T) {
	svc := newMockDatasources(&mockDatabase{})

	ds, err := svc.Open(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "mock", ds.Name)
	assert.Equal(t, "public", ds.Schema, "falls back to the backend default schema")
	assert.Equal(t, "sales", ds.ResolveSchema("sales"))
	assert.Equal(t, "public", ds.ResolveSchema(""))
}

func TestDatasourceService_ConfiguredSchema(t *testing.T) {
	svc := NewDatasourceService(&staticCatalog{name: "hr", schema: "people", db: &mockDatabase{}}, zap.NewNop())

	ds, err := svc.Open(context.Background(), "hr")
	require.NoError(t, err)
	assert.Equal(t, "people", ds.Schema)
}

func TestDatasourceService_UnknownName(t *testing.T) {
	svc := newMockDatasources(&mockDatabase{})

	_, err := svc.Open(context.Background(), "nope")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

type emptyCatalog struct{}

func (emptyCatalog) Get(ctx context.Context, name string) (datasource.Database, error) {
	return nil, apperrors.ErrNotFound
}
func (emptyCatalog) Datasources() []datasource.DatasourceSummary { return nil }

func TestDatasourceService_NoneConfigured(t *testing.T) {
	svc := NewDatasourceService(emptyCatalog{}, zap.NewNop())

	_, err := svc.Open(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
	assert.Empty(t, svc.List(context.Background()))
}

func TestDatasourceService_TestConnection(t *testing.T) {
	svc := newSQLiteDatasources(t)
	require.NoError(t, svc.TestConnection(context.Background(), "test"))
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/ekaya-askdb/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-askdb/pkg/auth"
	"github.com/ekaya-inc/ekaya-askdb/pkg/llm"
	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
	"github.com/ekaya-inc/ekaya-askdb/pkg/testhelpers"
)

// staticCatalog serves one database under one name.
type staticCatalog struct {
	name string
	db   datasource.Database
}

func (c *staticCatalog) Get(ctx context.Context, name string) (datasource.Database, error) {
	if name != c.name {
		return nil, fmt.Errorf("datasource %q: %w", name, apperrors.ErrNotFound)
	}
	return c.db, nil
}

func (c *staticCatalog) Datasources() []datasource.DatasourceSummary {
	return []datasource.DatasourceSummary{{Name: c.name, Type: "sqlite", Schema: "main", Available: true, Connected: true}}
}

// apiFixture wires the real services over a seeded SQLite database and a
// mock model, and serves every /api route from one mux.
type apiFixture struct {
	mux      *http.ServeMux
	sessions services.SessionService
	mock     *llm.MockLLMClient
}

func newAPIFixture(t *testing.T, client llm.LLMClient) *apiFixture {
	t.Helper()
	logger := zap.NewNop()

	adapter := sqlite.NewAdapterFromDB(testhelpers.NewSQLiteDB(t), logger)
	datasources := services.NewDatasourceService(&staticCatalog{name: "test", db: adapter}, logger)
	schemas := services.NewSchemaService(datasources, 2, logger)
	queries := services.NewQueryService(datasources, services.QueryOptions{}, logger)
	sessions := services.NewSessionService(time.Hour, logger)
	ask := services.NewAskService(schemas, queries, sessions, client, services.AskOptions{}, logger)
	plots := services.NewPlotService(client, services.PlotOptions{}, logger)
	store := auth.NewSessionStore("askdb-session", "test-secret", time.Hour, false)

	mux := http.NewServeMux()
	NewAskHandler(ask, store, logger).RegisterRoutes(mux)
	NewQueriesHandler(queries, sessions, store, logger).RegisterRoutes(mux)
	NewPlotHandler(plots, sessions, store, logger).RegisterRoutes(mux)
	NewSessionHandler(sessions, store, logger).RegisterRoutes(mux)
	NewDatasourcesHandler(datasources, schemas, logger).RegisterRoutes(mux)

	mock, _ := client.(*llm.MockLLMClient)
	return &apiFixture{mux: mux, sessions: sessions, mock: mock}
}

// do sends a request through the mux. body is JSON encoded unless it is
// already a string.
func (f *apiFixture) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

// sessionCookie returns the session cookie set by a response.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "askdb-session" {
			return c
		}
	}
	t.Fatal("response set no session cookie")
	return nil
}

// decodeResponse decodes an ApiResponse whose data is decoded into data
// when data is non-nil.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data any) ApiResponse {
	t.Helper()
	var envelope struct {
		ApiResponse
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	if data != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			t.Fatalf("failed to decode data %s: %v", envelope.Data, err)
		}
	}
	return envelope.ApiResponse
}

// fakeStats is a fixed StatsProvider.
type fakeStats struct {
	stats datasource.ConnectionStats
}

func (f *fakeStats) GetStats() datasource.ConnectionStats {
	return f.stats
}

package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-askdb/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-askdb/pkg/models"
	"github.com/ekaya-inc/ekaya-askdb/pkg/services"
)

type mockDatasourceService struct {
	summaries []datasource.DatasourceSummary
}

func (m *mockDatasourceService) List(ctx context.Context) []datasource.DatasourceSummary {
	return m.summaries
}

func (m *mockDatasourceService) Open(ctx context.Context, name string) (*services.OpenDatasource, error) {
	return nil, nil
}

func (m *mockDatasourceService) TestConnection(ctx context.Context, name string) error {
	return nil
}

type mockSchemaService struct {
	snapshot *models.SchemaSnapshot
	err      error

	// Capture for verification
	datasource  string
	schema      string
	withSamples bool
}

func (m *mockSchemaService) Snapshot(ctx context.Context, datasourceName, schema string, withSamples bool) (*models.SchemaSnapshot, error) {
	m.datasource, m.schema, m.withSamples = datasourceName, schema, withSamples
	return m.snapshot, m.err
}

type mockQueryService struct {
	result *models.ResultTable
	err    error

	datasource string
	query      string
}

func (m *mockQueryService) Execute(ctx context.Context, datasourceName, query string) (*models.ResultTable, error) {
	m.datasource, m.query = datasourceName, query
	return m.result, m.err
}

type mockAskService struct {
	result *services.AskResult
	err    error

	request  services.AskRequest
	question string
}

func (m *mockAskService) Ask(ctx context.Context, req services.AskRequest) (*services.AskResult, error) {
	m.request = req
	return m.result, m.err
}

func (m *mockAskService) GenerateSQL(ctx context.Context, datasourceName, schema, question string) (*services.AskResult, error) {
	m.question = question
	return m.result, m.err
}

func newTestServer(deps *Deps) *server.MCPServer {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterAll(s, deps)
	return s
}

type toolResponse struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// callTool invokes a tool through the server and returns the decoded response.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	raw, err := json.Marshal(s.HandleMessage(context.Background(), body))
	if err != nil {
		t.Fatalf("failed to marshal response: %v", err)
	}
	var resp toolResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

// text returns the first text content of a tool response.
func (r toolResponse) text() string {
	if len(r.Result.Content) == 0 {
		return ""
	}
	return r.Result.Content[0].Text
}

func decodeText(t *testing.T, r toolResponse, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(r.text()), v); err != nil {
		t.Fatalf("failed to decode tool text %q: %v", r.text(), err)
	}
}

package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hadiscover/hadiscover/internal/cache"
	"github.com/hadiscover/hadiscover/internal/query"
	"github.com/hadiscover/hadiscover/internal/store"
	"github.com/hadiscover/hadiscover/pkg/types"
)

func newTestMCPServer(t *testing.T) *Server {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	repo := types.Repository{Name: "ha-config", Owner: "alice", URL: "https://example.test/ha-config", Stars: 5}
	require.NoError(t, st.UpsertRepository(ctx, &repo))

	autos := []types.Automation{
		{RepositoryID: repo.ID, Alias: "Motion light", TriggerTypes: []string{"state"}, ActionCalls: []string{"light.turn_on"}},
		{RepositoryID: repo.ID, Alias: "Morning blinds", TriggerTypes: []string{"time"}, ActionCalls: []string{"cover.open_cover"}},
	}
	for i := range autos {
		require.NoError(t, st.UpsertAutomation(ctx, &autos[i]))
	}

	mem, err := cache.NewMemory(64)
	require.NoError(t, err)
	router := query.New(st, cache.New(mem, zap.NewNop()), nil, zap.NewNop())

	return NewServer(router)
}

func callTool(args map[string]interface{}) mcpgo.CallToolRequest {
	var req mcpgo.CallToolRequest
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, result *mcpgo.CallToolResult) map[string]interface{} {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := mcpgo.AsTextContent(result.Content[0])
	require.True(t, ok)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func TestSearchAutomationsTool(t *testing.T) {
	s := newTestMCPServer(t)

	result, err := s.handleSearchAutomations(context.Background(), callTool(map[string]interface{}{
		"query": "motion",
	}))
	require.NoError(t, err)

	payload := textContent(t, result)
	assert.Equal(t, float64(1), payload["total"])

	results := payload["results"].([]interface{})
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "Motion light", first["alias"])
	assert.Equal(t, "ha-config", first["repository_name"])
}

func TestSearchAutomationsToolRejectsOverlongTerm(t *testing.T) {
	s := newTestMCPServer(t)

	long := make([]byte, types.MaxTermLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := s.handleSearchAutomations(context.Background(), callTool(map[string]interface{}{
		"query": string(long),
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestGetFacetsTool(t *testing.T) {
	s := newTestMCPServer(t)

	result, err := s.handleGetFacets(context.Background(), callTool(map[string]interface{}{
		"dimension": "trigger_type",
	}))
	require.NoError(t, err)

	payload := textContent(t, result)
	facets := payload["facets"].(map[string]interface{})
	require.Len(t, facets, 1)

	buckets := facets["trigger_type"].([]interface{})
	assert.Len(t, buckets, 2)
}

func TestGetFacetsToolUnknownDimension(t *testing.T) {
	s := newTestMCPServer(t)

	_, err := s.handleGetFacets(context.Background(), callTool(map[string]interface{}{
		"dimension": "color",
	}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestGetStatisticsTool(t *testing.T) {
	s := newTestMCPServer(t)

	result, err := s.handleGetStatistics(context.Background(), callTool(nil))
	require.NoError(t, err)

	payload := textContent(t, result)
	assert.Equal(t, float64(1), payload["total_repositories"])
	assert.Equal(t, float64(2), payload["total_automations"])
}

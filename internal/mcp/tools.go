package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hadiscover/hadiscover/internal/engine"
	"github.com/hadiscover/hadiscover/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
)

// queryFromArgs builds a search query from the shared filter parameters.
func queryFromArgs(args map[string]interface{}) types.SearchQuery {
	return types.SearchQuery{
		Term:               getStringDefault(args, "query", ""),
		TriggerFilter:      getStringDefault(args, "trigger_type", ""),
		ActionDomainFilter: getStringDefault(args, "action_domain", ""),
		BlueprintOnly:      getBoolDefault(args, "blueprint_only", false),
		Page:               getIntDefault(args, "page", 0),
		PerPage:            getIntDefault(args, "per_page", 0),
	}
}

// handleSearchAutomations handles the search_automations tool invocation
func (s *Server) handleSearchAutomations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	page, err := s.router.Search(ctx, queryFromArgs(args))
	if err != nil {
		return nil, queryError(err)
	}

	results := make([]engine.Document, 0, len(page.Hits))
	for _, hit := range page.Hits {
		results = append(results, engine.FromHit(hit))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"results":  results,
		"total":    page.Total,
		"page":     page.Page,
		"per_page": page.PerPage,
	})), nil
}

// handleGetFacets handles the get_facets tool invocation
func (s *Server) handleGetFacets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	buckets, err := s.router.Facets(ctx, queryFromArgs(args))
	if err != nil {
		return nil, queryError(err)
	}

	if dim := getStringDefault(args, "dimension", ""); dim != "" {
		d, err := types.ParseDimension(dim)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid dimension", map[string]interface{}{
				"param": "dimension",
				"value": dim,
			})
		}
		buckets = map[types.Dimension][]types.FacetBucket{d: buckets[d]}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"facets": buckets,
	})), nil
}

// handleGetStatistics handles the get_statistics tool invocation
func (s *Server) handleGetStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.router.Statistics(ctx)
	if err != nil {
		return nil, queryError(err)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"total_repositories": stats.TotalRepositories,
		"total_automations":  stats.TotalAutomations,
		"total_blueprints":   stats.TotalBlueprints,
		"trigger_types":      stats.TriggerTypes,
		"action_domains":     stats.ActionDomains,
	})), nil
}

// queryError maps router failures onto MCP error codes.
func queryError(err error) error {
	if errors.Is(err, types.ErrTermTooLong) || errors.Is(err, types.ErrInvalidTerm) {
		return newMCPError(ErrorCodeInvalidParams, "invalid query", map[string]interface{}{
			"reason": err.Error(),
		})
	}
	return newMCPError(ErrorCodeInternalError, "query failed", map[string]interface{}{
		"error": err.Error(),
	})
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

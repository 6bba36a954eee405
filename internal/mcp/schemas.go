package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchQueryProperties are the shared filter parameters for search and facet tools.
func searchQueryProperties() map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "Free-text term matched against automation alias and description",
		},
		"trigger_type": map[string]interface{}{
			"type":        "string",
			"description": "Only automations using this trigger type (e.g. state, time, webhook)",
		},
		"action_domain": map[string]interface{}{
			"type":        "string",
			"description": "Only automations calling a service in this domain (e.g. light, notify)",
		},
		"blueprint_only": map[string]interface{}{
			"type":        "boolean",
			"description": "Only blueprint-based automations",
			"default":     false,
		},
	}
}

// searchAutomationsTool returns the tool definition for search_automations
func searchAutomationsTool() mcp.Tool {
	props := searchQueryProperties()
	props["page"] = map[string]interface{}{
		"type":        "integer",
		"description": "1-based result page",
		"default":     1,
		"minimum":     1,
	}
	props["per_page"] = map[string]interface{}{
		"type":        "integer",
		"description": "Results per page (1-200)",
		"default":     50,
		"minimum":     1,
		"maximum":     200,
	}
	return mcp.Tool{
		Name:        "search_automations",
		Description: "Search indexed Home Assistant automations with free text and filters",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
		},
	}
}

// getFacetsTool returns the tool definition for get_facets
func getFacetsTool() mcp.Tool {
	props := searchQueryProperties()
	props["dimension"] = map[string]interface{}{
		"type":        "string",
		"description": "Restrict the response to one grouping axis",
		"enum":        []string{"repository", "trigger_type", "action_domain", "blueprint"},
	}
	return mcp.Tool{
		Name:        "get_facets",
		Description: "Compute grouped counts over the automations matching a query",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
		},
	}
}

// getStatisticsTool returns the tool definition for get_statistics
func getStatisticsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_statistics",
		Description: "Corpus-wide totals: repositories, automations, blueprints, distinct tags",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

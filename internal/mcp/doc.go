// Package mcp implements the Model Context Protocol (MCP) server for hadiscover.
//
// The MCP server exposes three tools to AI assistants:
//   - search_automations: Search indexed automations with free text and filters
//   - get_facets: Compute grouped counts over the matched set
//   - get_statistics: Corpus-wide totals
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Basic Usage
//
// The MCP server is typically started via the mcp command:
//
//	hadiscover mcp
//
// It then listens on stdin for MCP protocol messages and writes responses to
// stdout. Stdout is reserved for the protocol; logs go to stderr.
//
// # Tool: search_automations
//
//	Request:
//	{
//	  "name": "search_automations",
//	  "arguments": {
//	    "query": "motion light",
//	    "trigger_type": "state",
//	    "action_domain": "light",
//	    "blueprint_only": false,
//	    "page": 1,
//	    "per_page": 50
//	  }
//	}
//
// Every argument is optional; an empty call returns the first page of the
// whole corpus ordered by repository stars.
//
// # Tool: get_facets
//
// Accepts the same filter arguments plus an optional "dimension" to restrict
// the response to one grouping axis (repository, trigger_type, action_domain,
// blueprint). Counts cover the full matched set, not one page.
//
// # Tool: get_statistics
//
// Takes no arguments and returns repository, automation, and blueprint totals
// plus distinct trigger type and action domain counts.
package mcp

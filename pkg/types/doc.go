// Package types provides shared domain types for the hadiscover backend.
//
// The two persistent entities are Repository and Automation. A Repository is
// identified by its URL; an Automation is identified by its alias within the
// owning repository and always references exactly one repository.
//
// # Search Queries
//
// SearchQuery carries a free-text term, optional filters, and pagination.
// Callers normalize before validating so that equivalent queries hash to the
// same cache key:
//
//	q := types.SearchQuery{Term: "  Motion Light ", Page: 0}
//	q.Normalize() // term "motion light", page 1, per_page 50
//	if err := q.Validate(); err != nil {
//	    // reject with a client error, never retried
//	}
//
// # Facets
//
// A FacetBucket is a (dimension, value, count) triple computed from the set
// of automations matching the current query. Buckets are transient: they are
// recomputed per query or served from the cache layer, never persisted.
//
// Supported dimensions: repository, trigger_type, action_domain, blueprint.
//
// # Action Domains
//
// The action domain of a call is the service prefix before the first dot:
// "light.turn_on" belongs to the "light" domain. Automation.ActionDomains
// returns the deduplicated sorted set for facet aggregation.
package types

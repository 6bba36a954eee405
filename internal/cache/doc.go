// Package cache implements the short-TTL cache layer for search results,
// facet aggregates, and corpus statistics.
//
// Keys are deterministic encodings of the normalized query (term, filters,
// pagination) hashed with SHA-256 and namespaced by TTL class, so equivalent
// queries share an entry and a whole class can be invalidated by prefix.
//
// TTL classes map to fixed durations per entity kind:
//
//	search     2 minutes
//	facets     10 minutes
//	statistics 5 minutes
//
// Expiry is checked at access time: an expired entry is treated identically
// to a miss and removed. The caller populates on miss via Set.
//
// # Fail-open
//
// The Cache wrapper owns the failure policy: any backend error on Get, Set,
// or Invalidate is logged and degraded — a failed Get is a miss, a failed Set
// drops the entry. A broken cache backend can slow requests down but can
// never fail them.
//
// # Concurrency
//
// Two requests missing on the same key may both compute and both Set; that is
// duplicate work, not a correctness problem. The memory backend's adds are
// atomic under its lock, so the final stored value is always one complete
// payload.
//
// Payloads are msgpack-encoded before storage, keeping the backend contract a
// plain byte store so a remote backend can be slotted in without touching the
// router.
package cache

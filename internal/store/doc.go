// Package store provides the primary store adapter: a uniform query
// interface over SQLite (small scale) or PostgreSQL (large scale) for
// authoritative repository and automation records.
//
// # Backends
//
// SQLite is the default. Text matching is LIKE '%term%' pattern scanning,
// whose cost grows with corpus size — that non-linear characteristic is the
// documented reason the cache layer exists, so the backend keeps it rather
// than papering over it. WAL mode is enabled and the pool is pinned to a
// single writer connection.
//
// PostgreSQL is for large deployments. It requires the pg_trgm extension and
// matches with trigram similarity plus ILIKE over GIN trigram indexes. The
// connection pool is bounded by DATABASE_POOL_SIZE and DATABASE_MAX_OVERFLOW;
// when the pool is exhausted database/sql queues callers instead of opening
// unbounded connections.
//
// # Schema
//
// Two tables: repositories (unique by url) and automations (unique by
// repository_id + alias, FK to repositories, no orphans). Trigger types,
// action calls, and precomputed action domains are stored as comma-separated
// tag columns; filters match whole tags by wrapping the column in commas.
//
// # Usage
//
//	st, err := store.NewSQLiteStore("./data/hadiscover.db")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	page, err := st.Search(ctx, types.SearchQuery{Term: "motion", Page: 1, PerPage: 50})
//
// Both backends implement RETURNING-based upserts keyed on the natural
// identifiers, so re-ingesting a corpus is idempotent.
package store

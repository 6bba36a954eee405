// Package engine integrates an optional external full-text search engine.
//
// Two pieces: a client for the engine's REST API (Meilisearch), and a Syncer
// that propagates primary-store mutations into the index asynchronously.
//
// Consistency is eventual. Reads that hit an unavailable engine fall back to
// the primary store (handled by the query router); writes that exhaust their
// retries land in a dead-letter list, which a later full reindex reconciles.
//
// The sync queue is a bounded channel. A slow or down engine causes Enqueue
// to return ErrQueueFull rather than buffering without limit — callers choose
// how to apply that backpressure.
package engine

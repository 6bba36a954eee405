// Package query routes read requests across the cache, the optional search
// engine, and the primary store. It owns the fallback policy: cached answers
// win, a healthy engine is preferred for term search, and the primary store
// is the authority whenever anything above it fails.
package query

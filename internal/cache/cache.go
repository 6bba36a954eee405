package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/hadiscover/hadiscover/pkg/types"
)

// Class selects the TTL for a cached value by entity kind.
type Class string

const (
	ClassSearch     Class = "search"
	ClassFacets     Class = "facets"
	ClassStatistics Class = "statistics"
)

// TTL returns the fixed duration for the class.
func (c Class) TTL() time.Duration {
	switch c {
	case ClassSearch:
		return 2 * time.Minute
	case ClassFacets:
		return 10 * time.Minute
	case ClassStatistics:
		return 5 * time.Minute
	default:
		return 2 * time.Minute
	}
}

// Prefix is the keyspace prefix for the class, used for invalidation.
func (c Class) Prefix() string {
	return string(c) + ":"
}

// Backend is a raw byte store with TTL semantics. Implementations may fail;
// the Cache wrapper turns every failure into a miss.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) error
}

// Cache is the fail-open wrapper the query router talks to. Backend
// unavailability degrades to always-miss and is logged, never surfaced.
type Cache struct {
	backend Backend
	logger  *zap.Logger
}

// New wraps a backend in fail-open semantics.
func New(backend Backend, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{backend: backend, logger: logger}
}

// Get returns the cached value, or a miss. Backend errors are misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed, treating as miss",
			zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if ok {
		c.logger.Debug("cache hit", zap.String("key", key))
	}
	return value, ok
}

// Set stores the value under the class TTL. Backend errors are dropped.
func (c *Cache) Set(ctx context.Context, key string, value []byte, class Class) {
	if err := c.backend.Set(ctx, key, value, class.TTL()); err != nil {
		c.logger.Warn("cache set failed, dropping entry",
			zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes every entry whose key starts with prefix.
func (c *Cache) Invalidate(ctx context.Context, prefix string) {
	if err := c.backend.Invalidate(ctx, prefix); err != nil {
		c.logger.Warn("cache invalidation failed",
			zap.String("prefix", prefix), zap.Error(err))
	}
}

// InvalidateAll clears every TTL class. Called after ingestion completes so
// stale aggregates for mutated data are not served out to their full TTL.
func (c *Cache) InvalidateAll(ctx context.Context) {
	for _, class := range []Class{ClassSearch, ClassFacets, ClassStatistics} {
		c.Invalidate(ctx, class.Prefix())
	}
}

// Key builds a deterministic cache key for a normalized query. Equivalent
// queries must produce identical keys, so the encoding covers the term, every
// filter, and the pagination offset.
func Key(class Class, q types.SearchQuery) string {
	var b strings.Builder
	b.WriteString(q.Term)
	b.WriteString("|")
	b.WriteString(q.TriggerFilter)
	b.WriteString("|")
	b.WriteString(q.ActionDomainFilter)
	b.WriteString("|")
	if q.BlueprintOnly {
		b.WriteString("bp")
	}
	b.WriteString("|")
	fmt.Fprintf(&b, "%d/%d", q.Page, q.PerPage)

	sum := sha256.Sum256([]byte(b.String()))
	return class.Prefix() + hex.EncodeToString(sum[:16])
}

// StatisticsKey is the single key for the corpus statistics payload.
func StatisticsKey() string {
	return ClassStatistics.Prefix() + "corpus"
}

// Marshal serializes a payload for storage.
func Marshal(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal deserializes a stored payload.
func Unmarshal(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hadiscover/hadiscover/internal/cache"
	"github.com/hadiscover/hadiscover/internal/engine"
	"github.com/hadiscover/hadiscover/internal/facet"
	"github.com/hadiscover/hadiscover/internal/store"
	"github.com/hadiscover/hadiscover/pkg/types"
)

// engineAttempts bounds how many times a query is retried against the search
// engine before falling back to the primary store.
const engineAttempts = 2

// Router answers search, facet, and statistics requests. Lookup order is
// cache, then the search engine when one is configured and healthy, then the
// primary store. Engine failures degrade transparently: the caller gets a
// correct answer from the store, never an engine error.
type Router struct {
	store  store.Store
	cache  *cache.Cache
	engine engine.Engine // nil when SEARCH_ENGINE=none
	logger *zap.Logger
}

// New creates a router. The engine may be nil.
func New(st store.Store, c *cache.Cache, eng engine.Engine, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{store: st, cache: c, engine: eng, logger: logger}
}

// Search returns one page of ranked hits for the query.
func (r *Router) Search(ctx context.Context, q types.SearchQuery) (*types.SearchPage, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := cache.Key(cache.ClassSearch, q)
	if data, ok := r.cache.Get(ctx, key); ok {
		var page types.SearchPage
		if err := cache.Unmarshal(data, &page); err == nil {
			return &page, nil
		}
		r.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}

	page, err := r.searchBackend(ctx, q)
	if err != nil {
		return nil, err
	}

	if data, err := cache.Marshal(page); err == nil {
		r.cache.Set(ctx, key, data, cache.ClassSearch)
	}
	return page, nil
}

// searchBackend tries the engine first, then the primary store.
func (r *Router) searchBackend(ctx context.Context, q types.SearchQuery) (*types.SearchPage, error) {
	if r.engine != nil && r.engine.Healthy(ctx) {
		var lastErr error
		for attempt := 0; attempt < engineAttempts; attempt++ {
			page, err := r.engine.Search(ctx, q)
			if err == nil {
				return page, nil
			}
			lastErr = err
			if ctx.Err() != nil {
				break
			}
		}
		r.logger.Warn("search engine query failed, falling back to primary store",
			zap.String("term", q.Term), zap.Error(lastErr))
	}

	page, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("primary store search: %w", err)
	}
	return page, nil
}

// Facets returns grouped counts over the full matched set of the query,
// for every dimension. Counts are computed from the primary store: the
// matched set must be exact, and per-dimension counts must sum to the
// matched total.
func (r *Router) Facets(ctx context.Context, q types.SearchQuery) (map[types.Dimension][]types.FacetBucket, error) {
	q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}

	// Facets cover the whole matched set, so pagination must not fragment
	// the cache keyspace.
	q.Page = 1
	q.PerPage = types.DefaultPerPage

	key := cache.Key(cache.ClassFacets, q)
	if data, ok := r.cache.Get(ctx, key); ok {
		var buckets map[types.Dimension][]types.FacetBucket
		if err := cache.Unmarshal(data, &buckets); err == nil {
			return buckets, nil
		}
		r.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}

	hits, err := r.store.Matching(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("primary store facet scan: %w", err)
	}
	buckets := facet.Aggregate(hits, types.AllDimensions)

	if data, err := cache.Marshal(buckets); err == nil {
		r.cache.Set(ctx, key, data, cache.ClassFacets)
	}
	return buckets, nil
}

// Statistics returns corpus-wide totals and distinct tag counts.
func (r *Router) Statistics(ctx context.Context) (*types.Statistics, error) {
	key := cache.StatisticsKey()
	if data, ok := r.cache.Get(ctx, key); ok {
		var stats types.Statistics
		if err := cache.Unmarshal(data, &stats); err == nil {
			return &stats, nil
		}
		r.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}

	stats, err := r.store.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("primary store statistics: %w", err)
	}

	if data, err := cache.Marshal(stats); err == nil {
		r.cache.Set(ctx, key, data, cache.ClassStatistics)
	}
	return stats, nil
}

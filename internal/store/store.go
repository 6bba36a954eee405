package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/hadiscover/hadiscover/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedBackend is returned for an unknown DATABASE_TYPE
	ErrUnsupportedBackend = errors.New("unsupported database backend")
)

// Store is the uniform query interface over the primary data store. The same
// contract is implemented by the SQLite backend (small scale) and the
// PostgreSQL backend (large scale); callers never branch on the backend.
type Store interface {
	// Search returns one page of automations matching the query, joined with
	// their repositories, plus the total match count.
	Search(ctx context.Context, q types.SearchQuery) (*types.SearchPage, error)

	// Matching returns the complete filtered set (no pagination) for facet
	// aggregation and for full reindexing into an external search engine.
	Matching(ctx context.Context, q types.SearchQuery) ([]types.SearchHit, error)

	// Statistics summarizes the indexed corpus.
	Statistics(ctx context.Context) (*types.Statistics, error)

	// Ingestion operations. Re-ingesting the same repository URL or the same
	// (repository, alias) pair updates the existing row.
	UpsertRepository(ctx context.Context, repo *types.Repository) error
	UpsertAutomation(ctx context.Context, auto *types.Automation) error

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// joinList serializes a tag list to the comma-separated storage form.
func joinList(items []string) string {
	return strings.Join(items, ",")
}

// splitList parses the comma-separated storage form back into a tag list.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// distinctTags accumulates distinct values across comma-separated tag columns.
// Used by both backends to compute corpus statistics.
type distinctTags map[string]struct{}

func (d distinctTags) addList(csv string) {
	for _, v := range splitList(csv) {
		d[v] = struct{}{}
	}
}

func (d distinctTags) values() []string {
	out := make([]string, 0, len(d))
	for v := range d {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

package engine

import (
	"context"
	"errors"

	"github.com/hadiscover/hadiscover/pkg/types"
)

// Known SEARCH_ENGINE values. Only Meilisearch has a client implementation;
// the others are recognized so configuration validation can give a precise
// error instead of silently disabling search-engine routing.
const (
	KindNone          = "none"
	KindMeilisearch   = "meilisearch"
	KindElasticsearch = "elasticsearch"
	KindTypesense     = "typesense"
	KindOpensearch    = "opensearch"
)

var (
	// ErrEngineUnavailable is returned when the sync target cannot be
	// reached. The query router treats it as a signal to fall back to the
	// primary store, never as a request error.
	ErrEngineUnavailable = errors.New("search engine unavailable")

	// ErrUnsupportedEngine is returned for a recognized SEARCH_ENGINE value
	// with no client implementation.
	ErrUnsupportedEngine = errors.New("unsupported search engine")

	// ErrQueueFull is returned by Syncer.Enqueue when the bounded buffer is
	// full. Callers decide whether to drop, block, or fail the ingestion.
	ErrQueueFull = errors.New("sync queue full")
)

// Document is the denormalized automation record pushed into the external
// index. Repository fields are embedded so a search hit can be rebuilt
// without a primary-store round trip.
type Document struct {
	ID              int64    `json:"id"`
	RepositoryID    int64    `json:"repository_id"`
	Alias           string   `json:"alias"`
	Description     string   `json:"description"`
	TriggerTypes    []string `json:"trigger_types"`
	ActionCalls     []string `json:"action_calls"`
	ActionDomains   []string `json:"action_domains"`
	BlueprintPath   string   `json:"blueprint_path"`
	SourceFilePath  string   `json:"source_file_path"`
	GitHubURL       string   `json:"github_url"`
	StartLine       int      `json:"start_line"`
	EndLine         int      `json:"end_line"`
	RepositoryName  string   `json:"repository_name"`
	RepositoryOwner string   `json:"repository_owner"`
	RepositoryURL   string   `json:"repository_url"`
	RepositoryStars int      `json:"repository_stars"`
}

// FromHit flattens a store hit into an index document.
func FromHit(hit types.SearchHit) Document {
	return Document{
		ID:              hit.Automation.ID,
		RepositoryID:    hit.Repository.ID,
		Alias:           hit.Automation.Alias,
		Description:     hit.Automation.Description,
		TriggerTypes:    hit.Automation.TriggerTypes,
		ActionCalls:     hit.Automation.ActionCalls,
		ActionDomains:   hit.Automation.ActionDomains(),
		BlueprintPath:   hit.Automation.BlueprintPath,
		SourceFilePath:  hit.Automation.SourceFilePath,
		GitHubURL:       hit.Automation.GitHubURL,
		StartLine:       hit.Automation.StartLine,
		EndLine:         hit.Automation.EndLine,
		RepositoryName:  hit.Repository.Name,
		RepositoryOwner: hit.Repository.Owner,
		RepositoryURL:   hit.Repository.URL,
		RepositoryStars: hit.Repository.Stars,
	}
}

// ToHit rebuilds a search hit from an index document.
func (d Document) ToHit() types.SearchHit {
	return types.SearchHit{
		Automation: types.Automation{
			ID:             d.ID,
			RepositoryID:   d.RepositoryID,
			Alias:          d.Alias,
			Description:    d.Description,
			TriggerTypes:   d.TriggerTypes,
			ActionCalls:    d.ActionCalls,
			BlueprintPath:  d.BlueprintPath,
			SourceFilePath: d.SourceFilePath,
			GitHubURL:      d.GitHubURL,
			StartLine:      d.StartLine,
			EndLine:        d.EndLine,
		},
		Repository: types.Repository{
			ID:    d.RepositoryID,
			Name:  d.RepositoryName,
			Owner: d.RepositoryOwner,
			URL:   d.RepositoryURL,
			Stars: d.RepositoryStars,
		},
	}
}

// Engine is the contract with an external full-text index. Implementations
// must be safe for concurrent use: the query router reads while the syncer
// writes.
type Engine interface {
	// Search executes the query against the external index.
	Search(ctx context.Context, q types.SearchQuery) (*types.SearchPage, error)

	// IndexDocuments adds or replaces documents in the index.
	IndexDocuments(ctx context.Context, docs []Document) error

	// DeleteDocuments removes documents from the index by automation ID.
	DeleteDocuments(ctx context.Context, ids []int64) error

	// Healthy reports whether the engine is reachable. The router checks
	// this before routing and falls back to the primary store when false.
	Healthy(ctx context.Context) bool
}

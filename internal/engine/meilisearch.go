package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hadiscover/hadiscover/pkg/types"
)

const (
	indexName         = "automations"
	defaultHTTPClient = 15 * time.Second
)

// Meilisearch is an Engine backed by a Meilisearch server's REST API.
type Meilisearch struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewMeilisearch creates a client for the given server URL. The API key is
// optional for unsecured development instances.
func NewMeilisearch(baseURL, apiKey string, logger *zap.Logger) *Meilisearch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Meilisearch{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultHTTPClient},
		logger:  logger,
	}
}

// do sends a JSON request and decodes the JSON response into out (when non-nil).
func (m *Meilisearch) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrEngineUnavailable, method, path, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

type searchRequest struct {
	Q      string   `json:"q"`
	Filter []string `json:"filter,omitempty"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

type searchResponse struct {
	Hits               []Document `json:"hits"`
	EstimatedTotalHits int        `json:"estimatedTotalHits"`
}

// buildFilter translates query filters into Meilisearch filter expressions.
func buildFilter(q types.SearchQuery) []string {
	var filters []string
	if q.TriggerFilter != "" {
		filters = append(filters, fmt.Sprintf("trigger_types = %q", q.TriggerFilter))
	}
	if q.ActionDomainFilter != "" {
		filters = append(filters, fmt.Sprintf("action_domains = %q", q.ActionDomainFilter))
	}
	if q.BlueprintOnly {
		filters = append(filters, `blueprint_path != ""`)
	}
	return filters
}

// Search executes the query against the automations index
func (m *Meilisearch) Search(ctx context.Context, q types.SearchQuery) (*types.SearchPage, error) {
	req := searchRequest{
		Q:      q.Term,
		Filter: buildFilter(q),
		Limit:  q.PerPage,
		Offset: q.Offset(),
	}

	var resp searchResponse
	if err := m.do(ctx, http.MethodPost, "/indexes/"+indexName+"/search", req, &resp); err != nil {
		return nil, err
	}

	hits := make([]types.SearchHit, 0, len(resp.Hits))
	for _, doc := range resp.Hits {
		hits = append(hits, doc.ToHit())
	}

	return &types.SearchPage{
		Hits:    hits,
		Total:   resp.EstimatedTotalHits,
		Page:    q.Page,
		PerPage: q.PerPage,
	}, nil
}

// IndexDocuments adds or replaces documents in the automations index
func (m *Meilisearch) IndexDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	path := "/indexes/" + indexName + "/documents?primaryKey=id"
	if err := m.do(ctx, http.MethodPut, path, docs, nil); err != nil {
		return fmt.Errorf("index %d documents: %w", len(docs), err)
	}
	return nil
}

// DeleteDocuments removes documents from the automations index
func (m *Meilisearch) DeleteDocuments(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	path := "/indexes/" + indexName + "/documents/delete-batch"
	if err := m.do(ctx, http.MethodPost, path, ids, nil); err != nil {
		return fmt.Errorf("delete %d documents: %w", len(ids), err)
	}
	return nil
}

// Healthy reports whether the Meilisearch server answers its health endpoint
func (m *Meilisearch) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := m.do(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		m.logger.Debug("search engine health check failed", zap.Error(err))
		return false
	}
	return true
}

// NewEngine constructs the Engine for a validated SEARCH_ENGINE value.
// Returns nil for KindNone.
func NewEngine(kind, url, apiKey string, logger *zap.Logger) (Engine, error) {
	switch kind {
	case "", KindNone:
		return nil, nil
	case KindMeilisearch:
		return NewMeilisearch(url, apiKey, logger), nil
	case KindElasticsearch, KindTypesense, KindOpensearch:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, kind)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEngine, kind)
	}
}

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hadiscover/hadiscover/internal/cache"
	"github.com/hadiscover/hadiscover/internal/engine"
	"github.com/hadiscover/hadiscover/internal/store"
	"github.com/hadiscover/hadiscover/pkg/types"
)

const corpusYAML = `
repositories:
  - name: ha-config
    owner: alice
    url: https://github.com/alice/ha-config
    stars: 120
    automations:
      - alias: Motion light
        description: Turn on hallway light on motion
        trigger_types: [state]
        action_calls: [light.turn_on]
        source_file_path: automations.yaml
        start_line: 1
        end_line: 14
      - alias: Morning blinds
        trigger_types: [time]
        action_calls: [cover.open_cover]
        blueprint_path: blueprints/morning.yaml
  - name: smart-home
    owner: bob
    url: https://github.com/bob/smart-home
    stars: 8
    automations:
      - alias: Away notify
        trigger_types: [zone]
        action_calls: [notify.mobile_app]
`

const corpusWithBadRecord = `
repositories:
  - name: partial
    owner: carol
    url: https://github.com/carol/partial
    automations:
      - alias: Good one
        trigger_types: [state]
        action_calls: [light.turn_on]
      - alias: "   "
        trigger_types: [time]
        action_calls: [light.turn_off]
`

func writeCorpus(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRunIngestsCorpus(t *testing.T) {
	st := newTestStore(t)
	ing := New(st, nil, nil, zap.NewNop())

	report, err := ing.Run(context.Background(), writeCorpus(t, corpusYAML))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Repositories)
	assert.Equal(t, 3, report.Automations)
	assert.Equal(t, 0, report.Failed)
	assert.True(t, report.OK())

	stats, err := st.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRepositories)
	assert.Equal(t, 3, stats.TotalAutomations)
	assert.Equal(t, 1, stats.TotalBlueprints)
}

func TestRunIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ing := New(st, nil, nil, zap.NewNop())
	path := writeCorpus(t, corpusYAML)

	_, err := ing.Run(context.Background(), path)
	require.NoError(t, err)
	_, err = ing.Run(context.Background(), path)
	require.NoError(t, err)

	stats, err := st.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRepositories)
	assert.Equal(t, 3, stats.TotalAutomations)
}

func TestRunCountsRejectedRecords(t *testing.T) {
	st := newTestStore(t)
	ing := New(st, nil, nil, zap.NewNop())

	report, err := ing.Run(context.Background(), writeCorpus(t, corpusWithBadRecord))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Repositories)
	assert.Equal(t, 1, report.Automations)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, report.OK())
}

func TestRunInvalidatesCache(t *testing.T) {
	st := newTestStore(t)
	mem, err := cache.NewMemory(16)
	require.NoError(t, err)
	c := cache.New(mem, zap.NewNop())

	ctx := context.Background()
	q := types.SearchQuery{Term: "motion"}
	q.Normalize()
	key := cache.Key(cache.ClassSearch, q)
	c.Set(ctx, key, []byte("stale"), cache.ClassSearch)
	c.Set(ctx, cache.StatisticsKey(), []byte("stale"), cache.ClassStatistics)

	ing := New(st, c, nil, zap.NewNop())
	_, err = ing.Run(ctx, writeCorpus(t, corpusYAML))
	require.NoError(t, err)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok, "search entries must be flushed after ingestion")
	_, ok = c.Get(ctx, cache.StatisticsKey())
	assert.False(t, ok, "statistics must be flushed after ingestion")
}

// countingEngine records how many documents were pushed.
type countingEngine struct {
	mu   sync.Mutex
	docs int
}

func (e *countingEngine) Search(context.Context, types.SearchQuery) (*types.SearchPage, error) {
	return &types.SearchPage{}, nil
}

func (e *countingEngine) IndexDocuments(_ context.Context, docs []engine.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs += len(docs)
	return nil
}

func (e *countingEngine) DeleteDocuments(context.Context, []int64) error { return nil }

func (e *countingEngine) Healthy(context.Context) bool { return true }

func TestRunFeedsSyncQueue(t *testing.T) {
	st := newTestStore(t)
	eng := &countingEngine{}
	syncer := engine.NewSyncer(eng, engine.DefaultSyncerConfig(), zap.NewNop())

	ing := New(st, nil, syncer, zap.NewNop())
	report, err := ing.Run(context.Background(), writeCorpus(t, corpusYAML))
	require.NoError(t, err)
	require.True(t, report.OK())

	require.NoError(t, syncer.Close())
	assert.Equal(t, 3, eng.docs)
}

func TestRunMissingFile(t *testing.T) {
	ing := New(newTestStore(t), nil, nil, zap.NewNop())
	_, err := ing.Run(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRunMalformedYAML(t *testing.T) {
	ing := New(newTestStore(t), nil, nil, zap.NewNop())
	_, err := ing.Run(context.Background(), writeCorpus(t, "repositories: [not-a-map"))
	assert.Error(t, err)
}

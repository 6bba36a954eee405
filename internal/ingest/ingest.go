// Package ingest loads a YAML corpus into the primary store and feeds the
// search engine sync queue. It backs the index-once command: one pass over
// the corpus file, upserting as it goes, then a cache flush so queries stop
// serving pre-ingestion aggregates.
package ingest

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/hadiscover/hadiscover/internal/cache"
	"github.com/hadiscover/hadiscover/internal/engine"
	"github.com/hadiscover/hadiscover/internal/store"
	"github.com/hadiscover/hadiscover/pkg/types"
)

// defaultWorkers bounds concurrent per-repository ingestion.
const defaultWorkers = 4

// corpusFile is the YAML shape of a corpus dump: repositories with their
// automations nested inline.
type corpusFile struct {
	Repositories []corpusRepository `yaml:"repositories"`
}

type corpusRepository struct {
	Name        string             `yaml:"name"`
	Owner       string             `yaml:"owner"`
	Description string             `yaml:"description"`
	URL         string             `yaml:"url"`
	Stars       int                `yaml:"stars"`
	Automations []corpusAutomation `yaml:"automations"`
}

type corpusAutomation struct {
	Alias          string   `yaml:"alias"`
	Description    string   `yaml:"description"`
	TriggerTypes   []string `yaml:"trigger_types"`
	ActionCalls    []string `yaml:"action_calls"`
	BlueprintPath  string   `yaml:"blueprint_path"`
	SourceFilePath string   `yaml:"source_file_path"`
	GitHubURL      string   `yaml:"github_url"`
	StartLine      int      `yaml:"start_line"`
	EndLine        int      `yaml:"end_line"`
}

// Report summarizes one ingestion run. Failed counts records that were
// rejected or errored; the run continues past individual failures.
type Report struct {
	Repositories int
	Automations  int
	Failed       int
}

// OK reports whether every record made it in.
func (r Report) OK() bool { return r.Failed == 0 }

// Ingester drives corpus ingestion. The syncer is optional: nil when no
// search engine is configured.
type Ingester struct {
	store   store.Store
	cache   *cache.Cache
	syncer  *engine.Syncer
	logger  *zap.Logger
	workers int
}

// New creates an ingester. cache and syncer may be nil.
func New(st store.Store, c *cache.Cache, syncer *engine.Syncer, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{store: st, cache: c, syncer: syncer, logger: logger, workers: defaultWorkers}
}

// Run loads the corpus file at path and ingests it. Individual record
// failures are counted in the report, not returned; the error return is for
// failures that abort the whole run (unreadable file, bad YAML).
func (ing *Ingester) Run(ctx context.Context, path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("read corpus: %w", err)
	}

	var corpus corpusFile
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return Report{}, fmt.Errorf("parse corpus: %w", err)
	}

	reports := make([]Report, len(corpus.Repositories))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(ing.workers)

	for i, repo := range corpus.Repositories {
		group.Go(func() error {
			reports[i] = ing.ingestRepository(ctx, repo)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Report{}, err
	}

	var total Report
	for _, r := range reports {
		total.Repositories += r.Repositories
		total.Automations += r.Automations
		total.Failed += r.Failed
	}

	if ing.cache != nil {
		ing.cache.InvalidateAll(ctx)
	}

	ing.logger.Info("ingestion complete",
		zap.Int("repositories", total.Repositories),
		zap.Int("automations", total.Automations),
		zap.Int("failed", total.Failed))
	return total, nil
}

// ingestRepository upserts one repository and its automations, then enqueues
// the batch for engine sync.
func (ing *Ingester) ingestRepository(ctx context.Context, src corpusRepository) Report {
	var report Report

	repo := types.Repository{
		Name:        src.Name,
		Owner:       src.Owner,
		Description: src.Description,
		URL:         src.URL,
		Stars:       src.Stars,
	}
	if err := ing.store.UpsertRepository(ctx, &repo); err != nil {
		ing.logger.Warn("repository rejected",
			zap.String("url", src.URL), zap.Error(err))
		report.Failed++
		return report
	}
	report.Repositories++

	docs := make([]engine.Document, 0, len(src.Automations))
	for _, a := range src.Automations {
		auto := types.Automation{
			RepositoryID:   repo.ID,
			Alias:          a.Alias,
			Description:    a.Description,
			TriggerTypes:   a.TriggerTypes,
			ActionCalls:    a.ActionCalls,
			BlueprintPath:  a.BlueprintPath,
			SourceFilePath: a.SourceFilePath,
			GitHubURL:      a.GitHubURL,
			StartLine:      a.StartLine,
			EndLine:        a.EndLine,
		}
		if err := ing.store.UpsertAutomation(ctx, &auto); err != nil {
			ing.logger.Warn("automation rejected",
				zap.String("repository", src.URL),
				zap.String("alias", a.Alias),
				zap.Error(err))
			report.Failed++
			continue
		}
		report.Automations++
		docs = append(docs, engine.FromHit(types.SearchHit{Automation: auto, Repository: repo}))
	}

	if ing.syncer != nil && len(docs) > 0 {
		if err := ing.syncer.Enqueue(docs); err != nil {
			// Backpressure is not a record failure: the store is already the
			// source of truth and a later full reindex reconciles the engine.
			ing.logger.Warn("sync enqueue failed",
				zap.String("repository", src.URL),
				zap.Int("documents", len(docs)),
				zap.Error(err))
		}
	}

	return report
}

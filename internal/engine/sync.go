package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SyncItem is one unit of work on the sync queue: a batch of documents to
// add or replace, or a batch of IDs to delete.
type SyncItem struct {
	ID      uuid.UUID
	Docs    []Document
	Deletes []int64
}

// SyncerConfig bounds the syncer's resources.
type SyncerConfig struct {
	QueueSize int         // Bounded buffer size (default 256)
	Workers   int         // Concurrent drain workers (default 2)
	Retry     RetryConfig // Backoff policy for transient engine errors
}

// DefaultSyncerConfig returns the standard bounds.
func DefaultSyncerConfig() SyncerConfig {
	return SyncerConfig{
		QueueSize: 256,
		Workers:   2,
		Retry:     DefaultRetryConfig(),
	}
}

// Syncer propagates primary-store mutations into the external index, one-way
// and asynchronously. It never runs on the query path: ingestion enqueues,
// workers drain. The queue is a bounded channel — when the sync target is
// slow the buffer fills and Enqueue reports backpressure instead of growing
// memory without bound.
type Syncer struct {
	engine Engine
	queue  chan SyncItem
	cfg    SyncerConfig
	logger *zap.Logger

	group  *errgroup.Group
	cancel context.CancelFunc

	pending atomic.Int64

	mu         sync.Mutex
	deadLetter []SyncItem

	closeOnce sync.Once
}

// NewSyncer creates a syncer and starts its drain workers.
func NewSyncer(eng Engine, cfg SyncerConfig, logger *zap.Logger) *Syncer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Retry.MaxRetries <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	s := &Syncer{
		engine: eng,
		queue:  make(chan SyncItem, cfg.QueueSize),
		cfg:    cfg,
		logger: logger,
		group:  group,
		cancel: cancel,
	}

	for i := 0; i < cfg.Workers; i++ {
		group.Go(func() error {
			s.drain(ctx)
			return nil
		})
	}

	return s
}

// Enqueue submits a document batch for asynchronous indexing. Returns
// ErrQueueFull when the bounded buffer is full.
func (s *Syncer) Enqueue(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	return s.submit(SyncItem{ID: uuid.New(), Docs: docs})
}

// EnqueueDelete submits a batch of automation IDs for asynchronous removal
// from the index. Returns ErrQueueFull when the bounded buffer is full.
func (s *Syncer) EnqueueDelete(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.submit(SyncItem{ID: uuid.New(), Deletes: ids})
}

func (s *Syncer) submit(item SyncItem) error {
	s.pending.Add(1)
	select {
	case s.queue <- item:
		return nil
	default:
		s.pending.Add(-1)
		return ErrQueueFull
	}
}

// Flush blocks until every enqueued item has been processed or ctx expires.
func (s *Syncer) Flush(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if s.pending.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// drain processes queue items until the queue closes or ctx is cancelled.
func (s *Syncer) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-s.queue:
			if !ok {
				return
			}
			s.process(ctx, item)
		}
	}
}

// process pushes one item with bounded retries; exhausted items go to the
// dead-letter list for a later full reindex to reconcile.
func (s *Syncer) process(ctx context.Context, item SyncItem) {
	defer s.pending.Add(-1)
	err := retryWithBackoff(ctx, s.cfg.Retry, func() error {
		if len(item.Deletes) > 0 {
			return s.engine.DeleteDocuments(ctx, item.Deletes)
		}
		return s.engine.IndexDocuments(ctx, item.Docs)
	})
	if err != nil {
		s.mu.Lock()
		s.deadLetter = append(s.deadLetter, item)
		s.mu.Unlock()
		s.logger.Warn("sync item dead-lettered",
			zap.String("item_id", item.ID.String()),
			zap.Int("documents", len(item.Docs)),
			zap.Int("deletes", len(item.Deletes)),
			zap.Error(err))
		return
	}
	s.logger.Debug("sync item processed",
		zap.String("item_id", item.ID.String()),
		zap.Int("documents", len(item.Docs)),
		zap.Int("deletes", len(item.Deletes)))
}

// DeadLetter returns a snapshot of items that exhausted their retries.
func (s *Syncer) DeadLetter() []SyncItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SyncItem, len(s.deadLetter))
	copy(out, s.deadLetter)
	return out
}

// Close stops accepting work, drains the remaining queue, and waits for the
// workers to finish.
func (s *Syncer) Close() error {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	err := s.group.Wait()
	s.cancel()
	return err
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"medialib/internal/adapter/canonical"
	"medialib/internal/domain"
	"medialib/internal/port"
)

// Invalidator is notified after every index mutation.
type Invalidator interface {
	Invalidate()
}

// schemaStamper is implemented by indexes that record which embedding model
// produced their vectors.
type schemaStamper interface {
	Migrate(ctx context.Context, model string) error
}

// SyncOptions configures the background queue.
type SyncOptions struct {
	Workers   int // 0 applies every task inline
	QueueSize int
	Timeout   time.Duration // per task
}

type syncOp int

const (
	opUpsert syncOp = iota
	opDelete
)

type syncTask struct {
	op    syncOp
	id    string
	rec   domain.CatalogRecord
	epoch uint64
}

// ProgressFunc reports bulk progress.
type ProgressFunc func(done, total int)

// Synchronizer keeps the vector index eventually consistent with the record
// store. Single-item failures are logged and dropped; the record store is
// authoritative.
type Synchronizer struct {
	records     port.RecordStore
	index       port.VectorIndex
	embedder    port.Embedder
	invalidator Invalidator
	opts        SyncOptions

	mu      sync.Mutex
	pending map[string]syncTask
	queue   chan string
	closed  bool
	epoch   uint64 // bumped by every wipe; older tasks are dropped
	workers errgroup.Group

	// inflight is read-held for the duration of every apply so a wipe can
	// wait for tasks that were already dequeued.
	inflight sync.RWMutex
	bulk     sync.Mutex
}

func NewSynchronizer(
	records port.RecordStore,
	index port.VectorIndex,
	embedder port.Embedder,
	invalidator Invalidator,
	opts SyncOptions,
) *Synchronizer {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}

	s := &Synchronizer{
		records:     records,
		index:       index,
		embedder:    embedder,
		invalidator: invalidator,
		opts:        opts,
		pending:     make(map[string]syncTask),
		queue:       make(chan string, opts.QueueSize),
	}

	for i := 0; i < opts.Workers; i++ {
		s.workers.Go(func() error {
			for id := range s.queue {
				s.mu.Lock()
				task, ok := s.pending[id]
				delete(s.pending, id)
				s.mu.Unlock()
				if ok {
					s.apply(task)
				}
			}
			return nil
		})
	}

	return s
}

// RecordSaved schedules an index upsert for a committed record.
func (s *Synchronizer) RecordSaved(rec domain.CatalogRecord) {
	s.schedule(syncTask{op: opUpsert, id: rec.ID, rec: rec})
}

// RecordDeleted schedules removal of the index entry for id.
func (s *Synchronizer) RecordDeleted(id string) {
	s.schedule(syncTask{op: opDelete, id: id})
}

func (s *Synchronizer) schedule(task syncTask) {
	s.notify()

	s.mu.Lock()
	task.epoch = s.epoch
	if s.opts.Workers == 0 || s.closed {
		s.mu.Unlock()
		s.apply(task)
		return
	}

	if _, queued := s.pending[task.id]; queued {
		s.pending[task.id] = task // latest mutation wins
		s.mu.Unlock()
		return
	}

	select {
	case s.queue <- task.id:
		s.pending[task.id] = task
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		slog.Debug("sync queue full, applying inline", "id", task.id)
		s.apply(task)
	}
}

func (s *Synchronizer) apply(task syncTask) {
	s.inflight.RLock()
	defer s.inflight.RUnlock()

	s.mu.Lock()
	stale := task.epoch != s.epoch
	s.mu.Unlock()
	if stale {
		slog.Debug("dropping index task scheduled before wipe", "id", task.id)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()

	switch task.op {
	case opUpsert:
		if err := s.IndexRecord(ctx, task.rec); err != nil {
			slog.Warn("failed to sync record to index", "id", task.id, "error", err)
		}
	case opDelete:
		if err := s.index.Delete(ctx, task.id); err != nil {
			slog.Warn("failed to remove record from index", "id", task.id, "error", err)
		}
	}
	s.notify()
}

// IndexRecord embeds the canonical text of rec and upserts it. The entry is
// written even when the embedding degraded to a zero vector.
func (s *Synchronizer) IndexRecord(ctx context.Context, rec domain.CatalogRecord) error {
	text := canonical.Text(rec)

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed: %w", err)
	}

	meta := map[string]string{"type": string(rec.Type)}
	if domain.IsZeroVector(vec) {
		meta["embedded"] = "false"
	}

	return s.index.Upsert(ctx, domain.IndexEntry{
		ID:       rec.ID,
		Vector:   vec,
		Metadata: meta,
		Document: text,
	})
}

// Close stops accepting background work and waits for queued tasks to finish.
func (s *Synchronizer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	return s.workers.Wait()
}

// quiesce invalidates every task scheduled so far and waits for the ones
// already running to finish. Queued ids stay in the channel and are skipped
// by the workers. It returns the number of discarded pending tasks.
func (s *Synchronizer) quiesce() int {
	s.mu.Lock()
	s.epoch++
	n := len(s.pending)
	s.pending = make(map[string]syncTask)
	s.mu.Unlock()

	s.inflight.Lock()
	s.inflight.Unlock()
	return n
}

// Restore replaces the whole library with items. Records keep their ids
// and timestamps. A failed wipe aborts the restore; per-item failures are
// collected and the loop continues.
func (s *Synchronizer) Restore(ctx context.Context, items []domain.CatalogRecord, progress ProgressFunc) (*domain.RestoreResult, error) {
	if !s.bulk.TryLock() {
		return nil, port.ErrRestoreInProgress
	}
	defer s.bulk.Unlock()

	if n := s.quiesce(); n > 0 {
		slog.Info("discarded pending index tasks before restore", "count", n)
	}

	removed, err := s.records.DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to clear records: %w", err)
	}
	if err := s.index.Wipe(ctx); err != nil {
		return nil, fmt.Errorf("failed to wipe index: %w", err)
	}
	s.notify()
	slog.Info("library wiped for restore", "removed", removed, "incoming", len(items))

	result := &domain.RestoreResult{Failed: []domain.RestoreFailure{}}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("restore cancelled after %d items: %w", i, err)
		}

		if err := item.Validate(); err != nil {
			result.Failed = append(result.Failed, domain.RestoreFailure{Index: i, ID: item.ID, Reason: err.Error()})
			slog.Warn("skipping invalid backup item", "index", i, "id", item.ID, "error", err)
			s.report(progress, i+1, len(items))
			continue
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}

		rec, err := s.records.Create(ctx, item)
		if err != nil {
			result.Failed = append(result.Failed, domain.RestoreFailure{Index: i, ID: item.ID, Reason: err.Error()})
			slog.Warn("failed to restore item", "index", i, "id", item.ID, "error", err)
			s.report(progress, i+1, len(items))
			continue
		}

		if err := s.IndexRecord(ctx, rec); err != nil {
			slog.Warn("failed to index restored item", "id", rec.ID, "error", err)
		}
		result.Inserted++
		s.report(progress, i+1, len(items))
	}

	s.stamp(ctx)
	s.notify()
	return result, nil
}

// Reindex wipes the index and re-embeds every stored record.
func (s *Synchronizer) Reindex(ctx context.Context, progress ProgressFunc) (*domain.RestoreResult, error) {
	if !s.bulk.TryLock() {
		return nil, port.ErrRestoreInProgress
	}
	defer s.bulk.Unlock()

	s.quiesce()

	records, err := s.records.List(ctx, domain.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	domain.SortByCreation(records)

	if err := s.index.Wipe(ctx); err != nil {
		return nil, fmt.Errorf("failed to wipe index: %w", err)
	}
	s.notify()

	result := &domain.RestoreResult{Failed: []domain.RestoreFailure{}}
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("reindex cancelled after %d records: %w", i, err)
		}
		if err := s.IndexRecord(ctx, rec); err != nil {
			result.Failed = append(result.Failed, domain.RestoreFailure{Index: i, ID: rec.ID, Reason: err.Error()})
			slog.Warn("failed to reindex record", "id", rec.ID, "error", err)
		} else {
			result.Inserted++
		}
		s.report(progress, i+1, len(records))
	}

	s.stamp(ctx)
	s.notify()
	return result, nil
}

func (s *Synchronizer) stamp(ctx context.Context) {
	stamper, ok := s.index.(schemaStamper)
	if !ok {
		return
	}
	if err := stamper.Migrate(ctx, s.embedder.ModelName()); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("failed to stamp index schema", "error", err)
	}
}

func (s *Synchronizer) report(progress ProgressFunc, done, total int) {
	if progress != nil {
		progress(done, total)
	}
}

func (s *Synchronizer) notify() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}

package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"event-dashboard/ingest"
	"event-dashboard/metrics"
	"event-dashboard/models"
	"event-dashboard/storage"
	"event-dashboard/utils"
)

// Loader runs one export through ingest, normalization and storage.
// Concurrent loads are safe; store writes and the grouped count that
// follows them are serialized.
type Loader struct {
	mu sync.Mutex

	opts       ingest.Options
	normalizer *Normalizer
	store      storage.EventStore
	metrics    *metrics.Collector
	logger     *utils.Logger
}

// NewLoader wires a Loader. store and m may be nil; without a store the
// actor counts are computed in memory.
func NewLoader(opts ingest.Options, n *Normalizer, store storage.EventStore, m *metrics.Collector, logger *utils.Logger) *Loader {
	return &Loader{opts: opts, normalizer: n, store: store, metrics: m, logger: logger}
}

// Load reads r and returns the new session dataset. Ingest and storage
// failures are fatal for the load; rows that fail to normalize are not.
func (l *Loader) Load(ctx context.Context, name string, r io.Reader) (*models.Dataset, error) {
	start := time.Now()

	raw, err := ingest.Read(r, l.opts)
	if err != nil {
		l.metrics.LoadFailed("ingest")
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	events := l.normalizer.Normalize(raw)

	ds := &models.Dataset{
		LoadID:   uuid.NewString(),
		Source:   name,
		LoadedAt: time.Now(),
		RowsRead: len(raw),
		Events:   events,
	}

	if l.store != nil {
		if err := l.persist(ctx, ds); err != nil {
			l.metrics.LoadFailed("storage")
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
	}
	if ds.ActorCounts == nil {
		ds.ActorCounts = CountByActor(events)
	}

	l.metrics.LoadSucceeded(len(raw), len(events), time.Since(start))
	l.logger.Info("[loader] Loaded %s (%s): %d rows read, %d events retained",
		name, ds.LoadID, len(raw), len(events))
	return ds, nil
}

// persist replaces the stored table with ds.Events and reads the actor
// counts back. The lock keeps another load from replacing the table between
// the two statements.
func (l *Loader) persist(ctx context.Context, ds *models.Dataset) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Replace(ctx, ds.Events); err != nil {
		return err
	}
	counts, err := l.store.CountByActor(ctx)
	if err != nil {
		l.logger.Warn("[loader] Count-by-actor query failed, using in-memory counts: %v", err)
		return nil
	}
	ds.ActorCounts = counts
	return nil
}

package worker

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
)

// IndexRefreshWorker watches the location ingestion revision and invalidates the
// table snapshot cache when it changes. It picks up ingestion runs done by other
// processes (e.g. the ingest command) against a shared database.
type IndexRefreshWorker struct {
	locations interfaces.LocationRepository
	cache     interfaces.Invalidator
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopOnce  sync.Once

	revision string
	seen     bool
}

func NewIndexRefreshWorker(locations interfaces.LocationRepository, cache interfaces.Invalidator, interval time.Duration) *IndexRefreshWorker {
	return &IndexRefreshWorker{
		locations: locations,
		cache:     cache,
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins polling in a background goroutine. It does not block.
func (w *IndexRefreshWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("refresh interval must be positive", goerr.V("interval", w.interval))
	}

	logging.Default().Info("index refresh worker starting", "interval", w.interval.String())
	go w.run(ctx)
	return nil
}

// Stop signals the worker to stop and waits for the loop to exit
func (w *IndexRefreshWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	<-w.doneCh
	logging.Default().Info("index refresh worker stopped")
}

func (w *IndexRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.poll(ctx); err != nil {
		logging.Default().Error("initial index revision check failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.poll(ctx); err != nil {
				logging.Default().Error("index revision check failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("index refresh worker context cancelled")
			return
		}
	}
}

// poll invalidates on the first observation too, since a snapshot may have been
// loaded before the worker knew the revision.
func (w *IndexRefreshWorker) poll(ctx context.Context) error {
	meta, err := w.locations.GetMetadata(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to get ingestion metadata")
	}

	if w.seen && meta.Revision == w.revision {
		return nil
	}

	logging.Default().Info("location ingestion revision changed, invalidating table cache",
		"previous", w.revision,
		"current", meta.Revision,
		"count", meta.Count)

	w.revision = meta.Revision
	w.seen = true
	w.cache.Invalidate()
	return nil
}

package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/repository/memory"
	"github.com/secmon-lab/ariadne/pkg/service/worker"
)

type countingInvalidator struct {
	count atomic.Int32
}

func (c *countingInvalidator) Invalidate() {
	c.count.Add(1)
}

type failingLocations struct {
	interfaces.LocationRepository
}

func (f *failingLocations) GetMetadata(ctx context.Context) (*model.IngestionMetadata, error) {
	return nil, errors.New("store down")
}

func TestIndexRefreshWorker_InvalidatesOnRevisionChange(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	inv := &countingInvalidator{}

	gt.NoError(t, repo.Location().SaveMetadata(ctx, &model.IngestionMetadata{
		Revision:    model.NewRevision(),
		CompletedAt: time.Now(),
		Count:       1,
	})).Required()

	w := worker.NewIndexRefreshWorker(repo.Location(), inv, 50*time.Millisecond)
	gt.NoError(t, w.Start(ctx)).Required()
	defer w.Stop()

	time.Sleep(30 * time.Millisecond)
	gt.Value(t, inv.count.Load()).Equal(int32(1))

	// same revision: no invalidation
	time.Sleep(100 * time.Millisecond)
	gt.Value(t, inv.count.Load()).Equal(int32(1))

	gt.NoError(t, repo.Location().SaveMetadata(ctx, &model.IngestionMetadata{
		Revision:    model.NewRevision(),
		CompletedAt: time.Now(),
		Count:       2,
	})).Required()

	time.Sleep(150 * time.Millisecond)
	gt.Value(t, inv.count.Load()).Equal(int32(2))
}

func TestIndexRefreshWorker_KeepsRunningOnError(t *testing.T) {
	ctx := context.Background()
	inv := &countingInvalidator{}

	w := worker.NewIndexRefreshWorker(&failingLocations{LocationRepository: memory.New().Location()}, inv, 20*time.Millisecond)
	gt.NoError(t, w.Start(ctx)).Required()

	time.Sleep(70 * time.Millisecond)
	w.Stop()
	gt.Value(t, inv.count.Load()).Equal(int32(0))
}

func TestIndexRefreshWorker_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := worker.NewIndexRefreshWorker(memory.New().Location(), &countingInvalidator{}, time.Hour)
	gt.NoError(t, w.Start(ctx)).Required()

	cancel()
	w.Stop()
}

func TestIndexRefreshWorker_RejectsNonPositiveInterval(t *testing.T) {
	w := worker.NewIndexRefreshWorker(memory.New().Location(), &countingInvalidator{}, 0)
	gt.Value(t, w.Start(context.Background())).NotNil()
}

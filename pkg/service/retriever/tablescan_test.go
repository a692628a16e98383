package retriever_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/repository/memory"
	"github.com/secmon-lab/ariadne/pkg/service/retriever"
)

func putLocations(t *testing.T, repo interfaces.LocationRepository, locs ...*model.Location) {
	t.Helper()
	for _, loc := range locs {
		_, err := repo.Put(context.Background(), loc)
		gt.NoError(t, err).Required()
	}
}

// countingLocations counts List calls to observe cache hits
type countingLocations struct {
	interfaces.LocationRepository
	lists atomic.Int32
}

func (c *countingLocations) List(ctx context.Context) ([]*model.Location, error) {
	c.lists.Add(1)
	return c.LocationRepository.List(ctx)
}

func TestTableScanSearch(t *testing.T) {
	ctx := context.Background()
	columns := []string{"name", "city", "latitude"}

	newScan := func(t *testing.T, locs interfaces.LocationRepository, query []float32) *retriever.TableScan {
		scan, err := retriever.NewTableScan(fixedEmbedder(query), locs, retriever.NewCache(), columns)
		gt.NoError(t, err).Required()
		return scan
	}

	t.Run("ranks by cosine similarity and returns min(k, m)", func(t *testing.T) {
		repo := memory.New()
		putLocations(t, repo.Location(),
			&model.Location{Name: "Far", City: "Austin", Embedding: vec(0, 1)},
			&model.Location{Name: "Near", City: "Bryan", Latitude: "30", Embedding: vec(1, 0)},
			&model.Location{Name: "Middle", City: "Waco", Embedding: vec(1, 1)},
		)

		docs, err := newScan(t, repo.Location(), vec(1, 0)).Search(ctx, "clinic in Bryan", 2)
		gt.NoError(t, err).Required()
		gt.Array(t, docs).Length(2)
		gt.Value(t, docs[0].Metadata["name"]).Equal("Near")
		gt.Value(t, docs[1].Metadata["name"]).Equal("Middle")

		rec, err := model.DecodeRecord(docs[0].Content, columns)
		gt.NoError(t, err).Required()
		lat, _ := rec.Get("latitude")
		gt.Value(t, lat).Equal("30")

		docs, err = newScan(t, repo.Location(), vec(1, 0)).Search(ctx, "clinic", 10)
		gt.NoError(t, err).Required()
		gt.Array(t, docs).Length(3)
	})

	t.Run("equal scores keep table order", func(t *testing.T) {
		repo := memory.New()
		putLocations(t, repo.Location(),
			&model.Location{Name: "First", Embedding: vec(1, 0)},
			&model.Location{Name: "Second", Embedding: vec(1, 0)},
			&model.Location{Name: "Third", Embedding: vec(1, 0)},
		)

		docs, err := newScan(t, repo.Location(), vec(1, 0)).Search(ctx, "q", 3)
		gt.NoError(t, err).Required()
		gt.Value(t, docs[0].Metadata["name"]).Equal("First")
		gt.Value(t, docs[1].Metadata["name"]).Equal("Second")
		gt.Value(t, docs[2].Metadata["name"]).Equal("Third")
	})

	t.Run("rows without embedding are skipped", func(t *testing.T) {
		repo := memory.New()
		putLocations(t, repo.Location(),
			&model.Location{Name: "Unembedded"},
			&model.Location{Name: "Embedded", Embedding: vec(1, 0)},
		)

		docs, err := newScan(t, repo.Location(), vec(1, 0)).Search(ctx, "q", 5)
		gt.NoError(t, err).Required()
		gt.Array(t, docs).Length(1)
		gt.Value(t, docs[0].Metadata["name"]).Equal("Embedded")
	})

	t.Run("empty table yields empty result", func(t *testing.T) {
		repo := memory.New()
		docs, err := newScan(t, repo.Location(), vec(1, 0)).Search(ctx, "q", 5)
		gt.NoError(t, err).Required()
		gt.Array(t, docs).Length(0)
	})

	t.Run("unknown column is rejected", func(t *testing.T) {
		repo := memory.New()
		_, err := retriever.NewTableScan(fixedEmbedder(vec(1)), repo.Location(), retriever.NewCache(), []string{"name", "nope"})
		gt.Value(t, err).NotNil()
	})

	t.Run("snapshot is cached until invalidated", func(t *testing.T) {
		repo := memory.New()
		putLocations(t, repo.Location(), &model.Location{Name: "Old", Embedding: vec(1, 0)})
		counting := &countingLocations{LocationRepository: repo.Location()}
		cache := retriever.NewCache()
		scan, err := retriever.NewTableScan(fixedEmbedder(vec(1, 0)), counting, cache, columns)
		gt.NoError(t, err).Required()

		_, err = scan.Search(ctx, "q", 5)
		gt.NoError(t, err).Required()
		putLocations(t, repo.Location(), &model.Location{Name: "New", Embedding: vec(1, 0)})

		docs, err := scan.Search(ctx, "q", 5)
		gt.NoError(t, err).Required()
		gt.Array(t, docs).Length(1)
		gt.Value(t, counting.lists.Load()).Equal(int32(1))

		cache.Invalidate()
		docs, err = scan.Search(ctx, "q", 5)
		gt.NoError(t, err).Required()
		gt.Array(t, docs).Length(2)
		gt.Value(t, counting.lists.Load()).Equal(int32(2))
	})

	t.Run("concurrent searches share the cache", func(t *testing.T) {
		repo := memory.New()
		putLocations(t, repo.Location(), &model.Location{Name: "Only", Embedding: vec(1, 0)})
		counting := &countingLocations{LocationRepository: repo.Location()}
		scan, err := retriever.NewTableScan(fixedEmbedder(vec(1, 0)), counting, retriever.NewCache(), columns)
		gt.NoError(t, err).Required()

		_, err = scan.Search(ctx, "warm", 1)
		gt.NoError(t, err).Required()

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				docs, err := scan.Search(ctx, "q", 1)
				gt.NoError(t, err)
				gt.Array(t, docs).Length(1)
			}()
		}
		wg.Wait()
		gt.Value(t, counting.lists.Load()).Equal(int32(1))
	})
}

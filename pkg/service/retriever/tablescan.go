package retriever

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

// locationTable is the only table the location indexes read. Ingestion writes it.
const locationTable = "location"

// TableScan ranks every row of the location table by exact cosine similarity.
//
// The whole table (selected columns plus embedding) is held in memory through Cache,
// so it only suits small tables. Rows without an embedding are never returned.
type TableScan struct {
	embedder  interfaces.Embedder
	locations interfaces.LocationRepository
	cache     *Cache
	columns   []string
}

var _ interfaces.RecordIndex = &TableScan{}

// NewTableScan returns a table-scan index over columns. Unknown column names are rejected.
func NewTableScan(embedder interfaces.Embedder, locations interfaces.LocationRepository, cache *Cache, columns []string) (*TableScan, error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	return &TableScan{
		embedder:  embedder,
		locations: locations,
		cache:     cache,
		columns:   columns,
	}, nil
}

func validateColumns(columns []string) error {
	if len(columns) == 0 {
		return goerr.New("at least one column is required")
	}
	for _, col := range columns {
		if !model.IsColumn(col) {
			return goerr.New("unknown location column", goerr.V("column", col))
		}
	}
	return nil
}

// Columns returns the ordered column set encoded into each document
func (s *TableScan) Columns() []string {
	return s.columns
}

func (s *TableScan) Search(ctx context.Context, query string, k int) ([]*model.Document, error) {
	if k <= 0 {
		return []*model.Document{}, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	snap, err := s.cache.Get(ctx, CacheKey(s.columns), loadSnapshot(s.locations, s.columns))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load table snapshot", goerr.V("table", locationTable))
	}

	scored := make([]*model.Document, 0, len(snap.Documents))
	for _, d := range snap.Documents {
		if len(d.Embedding) == 0 {
			continue
		}
		c := d.Copy()
		c.Score = model.CosineSimilarity(vec, d.Embedding)
		scored = append(scored, c)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

func loadSnapshot(locations interfaces.LocationRepository, columns []string) func(ctx context.Context) (*Snapshot, error) {
	return func(ctx context.Context) (*Snapshot, error) {
		rows, err := locations.List(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list locations")
		}

		docs := make([]*model.Document, 0, len(rows))
		for _, loc := range rows {
			rec, err := loc.Record(columns)
			if err != nil {
				return nil, err
			}
			content, err := rec.Encode()
			if err != nil {
				return nil, err
			}
			docs = append(docs, &model.Document{
				ID:        loc.ID,
				Content:   content,
				Metadata:  rec.Map(),
				Embedding: loc.Embedding,
			})
		}

		return &Snapshot{Documents: docs, LoadedAt: time.Now().UTC()}, nil
	}
}

package retriever

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

// Keyword returns rows where any selected column contains the query, case-insensitively,
// in table order. It needs no embeddings and shares table snapshots with TableScan.
type Keyword struct {
	locations interfaces.LocationRepository
	cache     *Cache
	columns   []string
}

var _ interfaces.RecordIndex = &Keyword{}

func NewKeyword(locations interfaces.LocationRepository, cache *Cache, columns []string) (*Keyword, error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	return &Keyword{
		locations: locations,
		cache:     cache,
		columns:   columns,
	}, nil
}

// Columns returns the ordered column set encoded into each document
func (s *Keyword) Columns() []string {
	return s.columns
}

func (s *Keyword) Search(ctx context.Context, query string, k int) ([]*model.Document, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if k <= 0 || needle == "" {
		return []*model.Document{}, nil
	}

	snap, err := s.cache.Get(ctx, CacheKey(s.columns), loadSnapshot(s.locations, s.columns))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load table snapshot", goerr.V("table", locationTable))
	}

	matches := make([]*model.Document, 0, k)
	for _, d := range snap.Documents {
		if len(matches) == k {
			break
		}
		for _, col := range s.columns {
			if strings.Contains(strings.ToLower(d.Metadata[col]), needle) {
				c := d.Copy()
				c.Score = 1
				matches = append(matches, c)
				break
			}
		}
	}
	return matches, nil
}

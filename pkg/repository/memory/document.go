package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

type documentRepository struct {
	mu          sync.RWMutex
	collections map[string][]*model.Document
}

func newDocumentRepository() *documentRepository {
	return &documentRepository{
		collections: make(map[string][]*model.Document),
	}
}

func (r *documentRepository) Add(ctx context.Context, collection string, docs []*model.Document) error {
	if collection == "" {
		return goerr.New("collection name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range docs {
		stored := d.Copy()
		if stored.ID == "" {
			stored.ID = uuid.New().String()
		}
		stored.Score = 0
		r.collections[collection] = append(r.collections[collection], stored)
	}
	return nil
}

func (r *documentRepository) FindNearest(ctx context.Context, collection string, embedding []float32, limit int) ([]*model.Document, error) {
	if limit <= 0 {
		return []*model.Document{}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*model.Document
	for _, d := range r.collections[collection] {
		if len(d.Embedding) == 0 {
			continue
		}
		c := d.Copy()
		c.Score = model.CosineSimilarity(embedding, d.Embedding)
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if limit < len(candidates) {
		candidates = candidates[:limit]
	}
	if candidates == nil {
		candidates = []*model.Document{}
	}
	return candidates, nil
}

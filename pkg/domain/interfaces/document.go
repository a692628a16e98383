package interfaces

import (
	"context"

	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

// DocumentRepository is the dense vector collection store
type DocumentRepository interface {
	Add(ctx context.Context, collection string, docs []*model.Document) error
	// FindNearest returns up to limit documents of the collection, most similar first,
	// with Embedding and Score filled in. An empty collection yields an empty slice.
	FindNearest(ctx context.Context, collection string, embedding []float32, limit int) ([]*model.Document, error)
}

package interfaces

import (
	"context"

	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

// SimilarityIndex returns documents ranked by relevance to query, at most k of them
type SimilarityIndex interface {
	Search(ctx context.Context, query string, k int) ([]*model.Document, error)
}

// RecordIndex is a SimilarityIndex whose documents are Records encoded with a fixed
// ordered column set
type RecordIndex interface {
	SimilarityIndex
	Columns() []string
}

// Embedder maps text to a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Classifier decides which retrieval strategy answers a query
type Classifier interface {
	Classify(ctx context.Context, query string) (model.Intent, error)
}

// Invalidator drops cached table snapshots
type Invalidator interface {
	Invalidate()
}

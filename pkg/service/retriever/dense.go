package retriever

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

const (
	DefaultFetchK = 20
	DefaultLambda = 0.5
)

// Dense searches a persistent vector collection and re-ranks the nearest candidates with MMR
type Dense struct {
	embedder   interfaces.Embedder
	documents  interfaces.DocumentRepository
	collection string
	fetchK     int
	lambda     float64
}

var _ interfaces.SimilarityIndex = &Dense{}

type DenseOption func(*Dense)

// WithFetchK sets how many nearest candidates are fetched before MMR re-ranking
func WithFetchK(n int) DenseOption {
	return func(d *Dense) {
		d.fetchK = n
	}
}

// WithLambda sets the MMR relevance/diversity balance
func WithLambda(lambda float64) DenseOption {
	return func(d *Dense) {
		d.lambda = lambda
	}
}

func NewDense(embedder interfaces.Embedder, documents interfaces.DocumentRepository, collection string, opts ...DenseOption) *Dense {
	d := &Dense{
		embedder:   embedder,
		documents:  documents,
		collection: collection,
		fetchK:     DefaultFetchK,
		lambda:     DefaultLambda,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dense) Search(ctx context.Context, query string, k int) ([]*model.Document, error) {
	if k <= 0 {
		return []*model.Document{}, nil
	}

	vec, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	fetchK := max(d.fetchK, k)
	candidates, err := d.documents.FindNearest(ctx, d.collection, vec, fetchK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch nearest documents",
			goerr.V("collection", d.collection),
			goerr.V("fetch_k", fetchK))
	}

	return MaximalMarginalRelevance(vec, candidates, k, d.lambda), nil
}

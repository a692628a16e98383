package retriever_test

import (
	"context"
	"errors"

	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

// vec returns a vector of the stored dimension with the given leading components
func vec(values ...float32) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	copy(v, values)
	return v
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.embedFn(ctx, text)
}

func fixedEmbedder(v []float32) *mockEmbedder {
	return &mockEmbedder{
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			return v, nil
		},
	}
}

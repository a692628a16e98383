package embedding_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/service/embedding"
)

type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, errors.New("not implemented")
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return c.generateEmbeddingFn(ctx, dimension, input)
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := embedding.New(nil)
	gt.Value(t, err).NotNil()
}

func TestEmbed(t *testing.T) {
	t.Run("returns float32 vector of configured dimension", func(t *testing.T) {
		var gotDim int
		client, err := embedding.New(&mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				gotDim = dimension
				out := make([][]float64, len(input))
				for i := range input {
					out[i] = make([]float64, dimension)
					out[i][0] = 0.5
				}
				return out, nil
			},
		})
		gt.NoError(t, err).Required()

		vec, err := client.Embed(context.Background(), "newborn nutritional advice")
		gt.NoError(t, err).Required()
		gt.Value(t, gotDim).Equal(model.EmbeddingDimension)
		gt.Array(t, vec).Length(model.EmbeddingDimension)
		gt.Value(t, vec[0]).Equal(float32(0.5))
	})

	t.Run("provider failure is ErrEmbeddingUnavailable", func(t *testing.T) {
		client, err := embedding.New(&mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return nil, errors.New("quota exceeded")
			},
		})
		gt.NoError(t, err).Required()

		_, err = client.Embed(context.Background(), "q")
		gt.Error(t, err).Is(embedding.ErrEmbeddingUnavailable)
	})

	t.Run("wrong dimension is ErrEmbeddingUnavailable", func(t *testing.T) {
		client, err := embedding.New(&mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return [][]float64{{1, 2, 3}}, nil
			},
		})
		gt.NoError(t, err).Required()

		_, err = client.Embed(context.Background(), "q")
		gt.Error(t, err).Is(embedding.ErrEmbeddingUnavailable)
	})

	t.Run("timeout cancels the call", func(t *testing.T) {
		client, err := embedding.New(&mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}, embedding.WithTimeout(10*time.Millisecond))
		gt.NoError(t, err).Required()

		_, err = client.Embed(context.Background(), "q")
		gt.Error(t, err).Is(embedding.ErrEmbeddingUnavailable)
		gt.Error(t, err).Is(context.DeadlineExceeded)
	})
}

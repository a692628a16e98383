package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

// ErrEmbeddingUnavailable is returned when the embedding provider fails or times out
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// Client turns text into vectors of model.EmbeddingDimension values through a gollem LLM client
type Client struct {
	llmClient gollem.LLMClient
	dimension int
	timeout   time.Duration
}

var _ interfaces.Embedder = &Client{}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithTimeout bounds each embedding call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithDimension overrides the requested vector dimension
func WithDimension(dim int) Option {
	return func(c *Client) {
		c.dimension = dim
	}
}

// New creates a new embedding client with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (*Client, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &Client{
		llmClient: llmClient,
		dimension: model.EmbeddingDimension,
		timeout:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Embed returns the vector of text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch returns one vector per input, in input order
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := c.llmClient.GenerateEmbedding(ctx, c.dimension, texts)
	if err != nil {
		return nil, goerr.Wrap(errors.Join(ErrEmbeddingUnavailable, err), "failed to generate embedding",
			goerr.V("count", len(texts)))
	}
	if len(raw) != len(texts) {
		return nil, goerr.Wrap(ErrEmbeddingUnavailable, "unexpected number of embeddings",
			goerr.V("expected", len(texts)),
			goerr.V("actual", len(raw)))
	}

	vectors := make([][]float32, len(raw))
	for i, v := range raw {
		if len(v) != c.dimension {
			return nil, goerr.Wrap(ErrEmbeddingUnavailable, "unexpected embedding dimension",
				goerr.V("expected", c.dimension),
				goerr.V("actual", len(v)))
		}
		vectors[i] = model.ToFloat32(v)
	}

	return vectors, nil
}

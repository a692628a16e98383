package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/ariadne/pkg/service/embedding"
	"github.com/urfave/cli/v3"
)

// Embedding selects the provider that turns queries and rows into vectors.
// Credentials are shared with the LLM configuration.
type Embedding struct {
	provider string
	model    string
	timeout  time.Duration
}

func (e *Embedding) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "embedding-provider",
			Usage:       "Embedding provider (gemini, openai)",
			Value:       ProviderOpenAI,
			Sources:     cli.EnvVars("ARIADNE_EMBEDDING_PROVIDER"),
			Destination: &e.provider,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name. It must produce 1536 dimensional vectors",
			Value:       "text-embedding-ada-002",
			Sources:     cli.EnvVars("ARIADNE_EMBEDDING_MODEL"),
			Destination: &e.model,
		},
		&cli.DurationFlag{
			Name:        "embedding-timeout",
			Usage:       "Timeout of a single embedding call (default: timeouts.retrieval of the retrieval config)",
			Sources:     cli.EnvVars("ARIADNE_EMBEDDING_TIMEOUT"),
			Destination: &e.timeout,
		},
	}
}

func (e *Embedding) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", e.provider),
		slog.String("model", e.model),
		slog.Duration("timeout", e.timeout),
	}
}

// Timeout returns the per-call embedding timeout, falling back when the flag is unset
func (e *Embedding) Timeout(fallback time.Duration) time.Duration {
	if e.timeout > 0 {
		return e.timeout
	}
	return fallback
}

// Configure creates the embedding client. llm supplies the provider credentials and
// defaultTimeout applies unless --embedding-timeout is set.
func (e *Embedding) Configure(ctx context.Context, llm *LLM, defaultTimeout time.Duration) (*embedding.Client, error) {
	opts := []embedding.Option{embedding.WithTimeout(e.Timeout(defaultTimeout))}

	switch e.provider {
	case ProviderOpenAI:
		if llm.openaiAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingCredentials, "openai-api-key is required for embeddings", goerr.V(ProviderKey, e.provider))
		}
		client, err := openai.New(ctx, llm.openaiAPIKey, openai.WithEmbeddingModel(e.model))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI embedding client")
		}
		return embedding.New(client, opts...)

	case ProviderGemini:
		if llm.geminiProject == "" {
			return nil, goerr.Wrap(ErrMissingCredentials, "gemini-project is required for embeddings", goerr.V(ProviderKey, e.provider))
		}
		client, err := gemini.New(ctx, llm.geminiProject, llm.geminiLocation, gemini.WithEmbeddingModel(e.model))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini embedding client")
		}
		return embedding.New(client, opts...)

	default:
		return nil, goerr.Wrap(ErrUnknownProvider, "invalid embedding-provider", goerr.V(ProviderKey, e.provider))
	}
}

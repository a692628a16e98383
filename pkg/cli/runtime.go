package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/ariadne/pkg/cli/config"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/service/classifier"
	"github.com/secmon-lab/ariadne/pkg/service/retriever"
	"github.com/secmon-lab/ariadne/pkg/usecase"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// runtimeConfig groups the flags every command that answers or ingests needs
type runtimeConfig struct {
	repo      config.Repository
	llm       config.LLM
	embedding config.Embedding
	retrieval config.Retrieval
}

func (rc *runtimeConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, rc.repo.Flags()...)
	flags = append(flags, rc.llm.Flags()...)
	flags = append(flags, rc.embedding.Flags()...)
	flags = append(flags, rc.retrieval.Flags()...)
	return flags
}

type runtime struct {
	repo     interfaces.Repository
	cache    *retriever.Cache
	settings *config.RetrievalSettings
	uc       *usecase.UseCases
}

func (rt *runtime) Close() {
	if err := rt.repo.Close(); err != nil {
		logging.Default().Error("failed to close repository", "error", err.Error())
	}
}

// build wires repository, models, indexes and use cases. Close the runtime when done.
func (rc *runtimeConfig) build(ctx context.Context) (*runtime, error) {
	settings, err := rc.retrieval.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load retrieval settings")
	}
	timeouts, err := settings.UseCaseTimeouts()
	if err != nil {
		return nil, err
	}

	llmClient, err := rc.llm.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure LLM")
	}
	embedder, err := rc.embedding.Configure(ctx, &rc.llm, timeouts.Retrieval)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure embedding")
	}
	cls, err := newClassifier(llmClient, timeouts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create classifier")
	}

	repo, err := rc.repo.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}

	cache := retriever.NewCache(retriever.WithLoadTimeout(timeouts.Retrieval))
	general := retriever.NewDense(embedder, repo.Document(), settings.Collection,
		retriever.WithFetchK(settings.FetchK),
		retriever.WithLambda(settings.Lambda),
	)

	var location interfaces.SimilarityIndex
	switch settings.LocationStrategy {
	case config.StrategyKeyword:
		location, err = retriever.NewKeyword(repo.Location(), cache, settings.Columns)
	default:
		location, err = retriever.NewTableScan(embedder, repo.Location(), cache, settings.Columns)
	}
	if err != nil {
		_ = repo.Close()
		return nil, goerr.Wrap(err, "failed to create location index")
	}

	uc := usecase.New(repo, llmClient,
		usecase.WithClassifier(cls),
		usecase.WithGeneralIndex(general),
		usecase.WithLocationIndex(location),
		usecase.WithEmbedder(embedder),
		usecase.WithCache(cache),
		usecase.WithTopK(settings.K),
		usecase.WithTimeouts(timeouts),
		usecase.WithDocumentCollection(settings.Collection),
		usecase.WithIngestLimits(settings.Ingest.Concurrency, settings.Ingest.RatePerSecond),
	)

	logging.Default().Info("Runtime configured",
		group("repository", rc.repo.LogAttrs()),
		group("llm", rc.llm.LogAttrs()),
		group("embedding", rc.embedding.LogAttrs()),
		group("retrieval", rc.retrieval.LogAttrs()),
		"collection", settings.Collection,
		"location_strategy", settings.LocationStrategy,
		"k", settings.K,
	)

	return &runtime{
		repo:     repo,
		cache:    cache,
		settings: settings,
		uc:       uc,
	}, nil
}

// newClassifier bounds classification like any other generation call
func newClassifier(llmClient gollem.LLMClient, timeouts usecase.Timeouts) (*classifier.Classifier, error) {
	var opts []classifier.Option
	if timeouts.Generation > 0 {
		opts = append(opts, classifier.WithTimeout(timeouts.Generation))
	}
	return classifier.New(llmClient, opts...)
}

func group(name string, attrs []slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

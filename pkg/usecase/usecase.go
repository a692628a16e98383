package usecase

import (
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"golang.org/x/time/rate"
)

const (
	DefaultTopK               = 4
	DefaultRetrievalTimeout   = 30 * time.Second
	DefaultGenerationTimeout  = 60 * time.Second
	DefaultStoreTimeout       = 10 * time.Second
	DefaultIngestConcurrency  = 4
	DefaultIngestRatePerSec   = 5
	DefaultDocumentCollection = "2024-09-02 00:44:49"
)

// Timeouts bounds each external call made while answering
type Timeouts struct {
	Retrieval  time.Duration
	Generation time.Duration
	Store      time.Duration
}

// UseCases is built once at startup and shared by every request handler
type UseCases struct {
	repo       interfaces.Repository
	llmClient  gollem.LLMClient
	classifier interfaces.Classifier
	general    interfaces.SimilarityIndex
	location   interfaces.SimilarityIndex
	embedder   interfaces.Embedder
	cache      interfaces.Invalidator

	topK              int
	timeouts          Timeouts
	collection        string
	ingestConcurrency int
	ingestLimiter     *rate.Limiter

	Answer       *AnswerUseCase
	Route        *RouteUseCase
	Ingest       *IngestUseCase
	Conversation *ConversationUseCase
}

type Option func(*UseCases)

// WithClassifier sets the query classifier used by Route
func WithClassifier(c interfaces.Classifier) Option {
	return func(uc *UseCases) {
		uc.classifier = c
	}
}

// WithGeneralIndex sets the knowledge-base index, used by Search and general routes
func WithGeneralIndex(idx interfaces.SimilarityIndex) Option {
	return func(uc *UseCases) {
		uc.general = idx
	}
}

// WithLocationIndex sets the location directory index
func WithLocationIndex(idx interfaces.SimilarityIndex) Option {
	return func(uc *UseCases) {
		uc.location = idx
	}
}

// WithEmbedder sets the embedder used by ingestion
func WithEmbedder(e interfaces.Embedder) Option {
	return func(uc *UseCases) {
		uc.embedder = e
	}
}

// WithCache sets the table snapshot cache invalidated after location ingestion
func WithCache(c interfaces.Invalidator) Option {
	return func(uc *UseCases) {
		uc.cache = c
	}
}

func WithTopK(k int) Option {
	return func(uc *UseCases) {
		uc.topK = k
	}
}

func WithTimeouts(t Timeouts) Option {
	return func(uc *UseCases) {
		if t.Retrieval > 0 {
			uc.timeouts.Retrieval = t.Retrieval
		}
		if t.Generation > 0 {
			uc.timeouts.Generation = t.Generation
		}
		if t.Store > 0 {
			uc.timeouts.Store = t.Store
		}
	}
}

// WithDocumentCollection sets the dense collection documents are ingested into
func WithDocumentCollection(name string) Option {
	return func(uc *UseCases) {
		uc.collection = name
	}
}

// WithIngestLimits bounds ingestion concurrency and the embedding call rate per second
func WithIngestLimits(concurrency int, perSecond float64) Option {
	return func(uc *UseCases) {
		if concurrency > 0 {
			uc.ingestConcurrency = concurrency
		}
		if perSecond > 0 {
			uc.ingestLimiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func New(repo interfaces.Repository, llmClient gollem.LLMClient, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:      repo,
		llmClient: llmClient,
		topK:      DefaultTopK,
		timeouts: Timeouts{
			Retrieval:  DefaultRetrievalTimeout,
			Generation: DefaultGenerationTimeout,
			Store:      DefaultStoreTimeout,
		},
		collection:        DefaultDocumentCollection,
		ingestConcurrency: DefaultIngestConcurrency,
		ingestLimiter:     rate.NewLimiter(rate.Limit(DefaultIngestRatePerSec), 1),
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Answer = NewAnswerUseCase(repo.Conversation(), llmClient, uc.topK, uc.timeouts)
	uc.Route = NewRouteUseCase(uc.Answer, uc.classifier, uc.general, uc.location)
	uc.Ingest = NewIngestUseCase(repo, uc.embedder, uc.cache, uc.collection, uc.ingestConcurrency, uc.ingestLimiter)
	uc.Conversation = NewConversationUseCase(repo.Conversation(), uc.timeouts.Store)

	return uc
}

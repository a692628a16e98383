package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/service/source"
	"github.com/secmon-lab/ariadne/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// IngestUseCase loads tabular sources into the location table and the dense collection
type IngestUseCase struct {
	repo        interfaces.Repository
	embedder    interfaces.Embedder
	cache       interfaces.Invalidator
	collection  string
	concurrency int
	limiter     *rate.Limiter
}

func NewIngestUseCase(repo interfaces.Repository, embedder interfaces.Embedder, cache interfaces.Invalidator, collection string, concurrency int, limiter *rate.Limiter) *IngestUseCase {
	if concurrency <= 0 {
		concurrency = DefaultIngestConcurrency
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &IngestUseCase{
		repo:        repo,
		embedder:    embedder,
		cache:       cache,
		collection:  collection,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// IngestLocations embeds and upserts every row of a location CSV. A failing row is
// recorded in the report and does not stop the others. When the run completes, a new
// ingestion revision is saved and cached table snapshots are invalidated.
func (uc *IngestUseCase) IngestLocations(ctx context.Context, r io.Reader) (*model.IngestReport, error) {
	if uc.embedder == nil {
		return nil, goerr.New("embedder is not configured")
	}

	rows, err := source.ParseLocations(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse location source")
	}

	logger := logging.From(ctx)
	logger.Info("location ingestion started", "rows", len(rows))

	results := make([]model.IngestResult, len(rows))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)

	for i, row := range rows {
		results[i] = model.IngestResult{Row: row.Row, Err: row.Err}
		if row.Location != nil {
			results[i].Key = row.Location.Name
		}
		if row.Err != nil {
			continue
		}

		eg.Go(func() error {
			results[i].Err = uc.ingestLocation(egCtx, row.Location)
			return nil
		})
	}
	_ = eg.Wait()

	report := &model.IngestReport{Results: results}
	if err := ctx.Err(); err != nil {
		return report, goerr.Wrap(err, "location ingestion interrupted", goerr.V("succeeded", report.Succeeded()))
	}

	meta := &model.IngestionMetadata{
		Revision:    model.NewRevision(),
		CompletedAt: time.Now().UTC(),
		Count:       report.Succeeded(),
	}
	if err := uc.repo.Location().SaveMetadata(ctx, meta); err != nil {
		return report, goerr.Wrap(err, "failed to save ingestion metadata")
	}
	if uc.cache != nil {
		uc.cache.Invalidate()
	}

	logger.Info("location ingestion completed",
		"revision", meta.Revision,
		"succeeded", report.Succeeded(),
		"failed", len(report.Failed()))

	return report, nil
}

func (uc *IngestUseCase) ingestLocation(ctx context.Context, loc *model.Location) error {
	if strings.TrimSpace(loc.Description) != "" {
		if err := uc.limiter.Wait(ctx); err != nil {
			return goerr.Wrap(err, "rate limiter wait aborted")
		}
		vec, err := uc.embedder.Embed(ctx, loc.Description)
		if err != nil {
			return goerr.Wrap(err, "failed to embed description")
		}
		loc.Embedding = vec
	}

	if _, err := uc.repo.Location().Put(ctx, loc); err != nil {
		return goerr.Wrap(err, "failed to store location")
	}
	return nil
}

// IngestDocuments embeds every row of a knowledge-base CSV and adds the embedded rows
// to the dense collection in one batch.
func (uc *IngestUseCase) IngestDocuments(ctx context.Context, collection string, r io.Reader) (*model.IngestReport, error) {
	if uc.embedder == nil {
		return nil, goerr.New("embedder is not configured")
	}
	if collection == "" {
		collection = uc.collection
	}

	rows, err := source.ParseDocuments(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse document source")
	}

	logger := logging.From(ctx)
	logger.Info("document ingestion started", "rows", len(rows), "collection", collection)

	results := make([]model.IngestResult, len(rows))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)

	for i, row := range rows {
		results[i] = model.IngestResult{Row: row.Row, Err: row.Err}
		if row.Err != nil {
			continue
		}
		if row.Document.ID == "" {
			row.Document.ID = uuid.New().String()
		}
		results[i].Key = row.Document.ID

		eg.Go(func() error {
			if err := uc.limiter.Wait(egCtx); err != nil {
				results[i].Err = goerr.Wrap(err, "rate limiter wait aborted")
				return nil
			}
			vec, err := uc.embedder.Embed(egCtx, row.Document.Content)
			if err != nil {
				results[i].Err = goerr.Wrap(err, "failed to embed content")
				return nil
			}
			row.Document.Embedding = vec
			return nil
		})
	}
	_ = eg.Wait()

	report := &model.IngestReport{Results: results}
	if err := ctx.Err(); err != nil {
		return report, goerr.Wrap(err, "document ingestion interrupted")
	}

	var docs []*model.Document
	var idx []int
	for i, row := range rows {
		if results[i].Err == nil && row.Document != nil {
			docs = append(docs, row.Document)
			idx = append(idx, i)
		}
	}

	if len(docs) > 0 {
		if err := uc.repo.Document().Add(ctx, collection, docs); err != nil {
			for _, i := range idx {
				results[i].Err = goerr.Wrap(err, "failed to store document")
			}
		}
	}

	logger.Info("document ingestion completed",
		"collection", collection,
		"succeeded", report.Succeeded(),
		"failed", len(report.Failed()))

	return report, nil
}

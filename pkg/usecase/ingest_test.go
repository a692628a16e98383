package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/repository/memory"
	"github.com/secmon-lab/ariadne/pkg/usecase"
)

const locationCSV = "id,name,address,city,state,zip_code,latitude,longitude,description\n" +
	"l1,Brazos Valley Counseling,100 Main St,Bryan,TX,77803,30.67,-96.37,Mental health support\n" +
	"l2,Broken Row\n" +
	"l3,Embedding Fails,1 Elm St,Waco,TX,76701,31.5,-97.1,FAIL\n" +
	"l4,No Description,2 Oak St,Austin,TX,78701,30.2,-97.7,\n"

func TestIngestLocations(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	cache := &countingInvalidator{}
	embedder := &mockEmbedder{
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			if text == "FAIL" {
				return nil, errors.New("embedding quota exceeded")
			}
			return unitEmbedder().Embed(ctx, text)
		},
	}

	uc := usecase.New(repo, (&promptLLM{}).client(),
		usecase.WithEmbedder(embedder),
		usecase.WithCache(cache),
		usecase.WithIngestLimits(2, 1000),
	)

	report, err := uc.Ingest.IngestLocations(ctx, strings.NewReader(locationCSV))
	gt.NoError(t, err).Required()
	gt.Array(t, report.Results).Length(4)
	gt.Value(t, report.Succeeded()).Equal(2)

	failed := report.Failed()
	gt.Array(t, failed).Length(2)
	gt.Value(t, failed[0].Row).Equal(2)
	gt.Value(t, failed[1].Row).Equal(3)
	gt.Value(t, failed[1].Key).Equal("Embedding Fails")
	gt.Value(t, report.Err()).NotNil()

	stored, err := repo.Location().GetByName(ctx, "Brazos Valley Counseling")
	gt.NoError(t, err).Required()
	gt.Array(t, stored.Embedding).Length(model.EmbeddingDimension)

	noDesc, err := repo.Location().GetByName(ctx, "No Description")
	gt.NoError(t, err).Required()
	gt.Array(t, noDesc.Embedding).Length(0)

	meta, err := repo.Location().GetMetadata(ctx)
	gt.NoError(t, err).Required()
	gt.String(t, meta.Revision).NotEqual("")
	gt.Value(t, meta.Count).Equal(2)
	gt.Value(t, cache.Count()).Equal(1)

	t.Run("second run changes revision", func(t *testing.T) {
		_, err := uc.Ingest.IngestLocations(ctx, strings.NewReader(locationCSV))
		gt.NoError(t, err).Required()

		next, err := repo.Location().GetMetadata(ctx)
		gt.NoError(t, err).Required()
		gt.String(t, next.Revision).NotEqual(meta.Revision)
		gt.Value(t, cache.Count()).Equal(2)

		all, err := repo.Location().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(2)
	})
}

func TestIngestLocations_BadHeader(t *testing.T) {
	uc := usecase.New(memory.New(), (&promptLLM{}).client(), usecase.WithEmbedder(unitEmbedder()))
	_, err := uc.Ingest.IngestLocations(context.Background(), strings.NewReader("id,city\n1,Bryan\n"))
	gt.Value(t, err).NotNil()
}

func TestIngestDocuments(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo, (&promptLLM{}).client(),
		usecase.WithEmbedder(unitEmbedder()),
		usecase.WithIngestLimits(2, 1000),
	)

	input := "content,source\n" +
		"Mastitis is treated with antibiotics,kb\n" +
		",kb\n" +
		"Hormonal IUDs thicken the cervical mucus,kb\n"

	report, err := uc.Ingest.IngestDocuments(ctx, "kb-test", strings.NewReader(input))
	gt.NoError(t, err).Required()
	gt.Value(t, report.Succeeded()).Equal(2)
	gt.Array(t, report.Failed()).Length(1)

	query, err := unitEmbedder().Embed(ctx, "Mastitis is treated with antibiotics")
	gt.NoError(t, err).Required()
	docs, err := repo.Document().FindNearest(ctx, "kb-test", query, 10)
	gt.NoError(t, err).Required()
	gt.Array(t, docs).Length(2)
	gt.Value(t, docs[0].Content).Equal("Mastitis is treated with antibiotics")
	gt.Value(t, docs[0].Metadata["source"]).Equal("kb")
	gt.String(t, docs[0].ID).NotEqual("")
}

func TestIngest_RequiresEmbedder(t *testing.T) {
	uc := usecase.New(memory.New(), (&promptLLM{}).client())
	_, err := uc.Ingest.IngestLocations(context.Background(), strings.NewReader(locationCSV))
	gt.Value(t, err).NotNil()
}

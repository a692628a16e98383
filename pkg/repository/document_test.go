package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

func runDocumentRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("FindNearest on empty collection is empty", func(t *testing.T) {
		repo := newRepo(t)

		docs, err := repo.Document().FindNearest(context.Background(), uniqueName("empty"), unitVector(0), 4)
		gt.NoError(t, err).Required()
		gt.Array(t, docs).Length(0)
	})

	t.Run("FindNearest ranks by cosine similarity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		collection := uniqueName("kb")

		near := unitVector(0)
		mid := unitVector(0)
		mid[1] = 1
		far := unitVector(1)

		gt.NoError(t, repo.Document().Add(ctx, collection, []*model.Document{
			{Content: "far", Metadata: map[string]string{"source": "c"}, Embedding: far},
			{Content: "near", Metadata: map[string]string{"source": "a"}, Embedding: near},
			{Content: "mid", Metadata: map[string]string{"source": "b"}, Embedding: mid},
		})).Required()
		gt.NoError(t, repo.Document().Add(ctx, uniqueName("other"), []*model.Document{
			{Content: "other collection", Embedding: near},
		})).Required()

		docs, err := repo.Document().FindNearest(ctx, collection, unitVector(0), 2)
		gt.NoError(t, err).Required()
		gt.Array(t, docs).Length(2)
		gt.Value(t, docs[0].Content).Equal("near")
		gt.Value(t, docs[0].Metadata["source"]).Equal("a")
		gt.Value(t, docs[1].Content).Equal("mid")
		gt.Bool(t, docs[0].Score > docs[1].Score).True()
		gt.Array(t, docs[0].Embedding).Length(model.EmbeddingDimension)
		gt.String(t, docs[0].ID).NotEqual("")
	})
}

func TestDocumentRepository(t *testing.T) {
	for _, f := range repoFactories() {
		t.Run(f.name, func(t *testing.T) {
			runDocumentRepositoryTest(t, f.new)
		})
	}
}

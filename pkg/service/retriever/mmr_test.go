package retriever_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
	"github.com/secmon-lab/ariadne/pkg/service/retriever"
)

func TestMaximalMarginalRelevance(t *testing.T) {
	query := vec(1, 0)
	candidates := []*model.Document{
		{ID: "a", Embedding: vec(1, 0)},
		{ID: "a-dup", Embedding: vec(1, 0.01)},
		{ID: "b", Embedding: vec(0.7, 0.7)},
	}

	t.Run("lambda 1 ranks by relevance", func(t *testing.T) {
		got := retriever.MaximalMarginalRelevance(query, candidates, 2, 1)
		gt.Array(t, got).Length(2)
		gt.Value(t, got[0].ID).Equal("a")
		gt.Value(t, got[1].ID).Equal("a-dup")
	})

	t.Run("diversity-leaning lambda prefers distinct second pick", func(t *testing.T) {
		got := retriever.MaximalMarginalRelevance(query, candidates, 2, 0.3)
		gt.Array(t, got).Length(2)
		gt.Value(t, got[0].ID).Equal("a")
		gt.Value(t, got[1].ID).Equal("b")
	})

	t.Run("k larger than candidates returns all", func(t *testing.T) {
		got := retriever.MaximalMarginalRelevance(query, candidates, 10, 0.5)
		gt.Array(t, got).Length(3)
	})

	t.Run("k zero returns empty", func(t *testing.T) {
		got := retriever.MaximalMarginalRelevance(query, candidates, 0, 0.5)
		gt.Array(t, got).Length(0)
	})

	t.Run("does not mutate candidates", func(t *testing.T) {
		candidates[0].Score = 0
		got := retriever.MaximalMarginalRelevance(query, candidates, 1, 0.5)
		gt.Value(t, got[0].Score > 0.99).Equal(true)
		gt.Value(t, candidates[0].Score).Equal(0.0)
	})
}

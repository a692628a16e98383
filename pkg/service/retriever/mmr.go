package retriever

import (
	"math"

	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

// MaximalMarginalRelevance selects up to k candidates balancing similarity to query against
// similarity to already selected ones. lambda 1 ranks by relevance only, 0 by diversity only.
// Ties go to the earlier candidate.
func MaximalMarginalRelevance(query []float32, candidates []*model.Document, k int, lambda float64) []*model.Document {
	if k <= 0 || len(candidates) == 0 {
		return []*model.Document{}
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = model.CosineSimilarity(query, c.Embedding)
	}

	selected := make([]int, 0, k)
	used := make([]bool, len(candidates))
	// maxSim[i] is the highest similarity of candidate i to any selected candidate
	maxSim := make([]float64, len(candidates))
	for i := range maxSim {
		maxSim[i] = math.Inf(-1)
	}

	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)
		for i := range candidates {
			if used[i] {
				continue
			}
			redundancy := 0.0
			if len(selected) > 0 {
				redundancy = maxSim[i]
			}
			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}

		used[best] = true
		selected = append(selected, best)
		for i, c := range candidates {
			if used[i] {
				continue
			}
			if s := model.CosineSimilarity(candidates[best].Embedding, c.Embedding); s > maxSim[i] {
				maxSim[i] = s
			}
		}
	}

	result := make([]*model.Document, len(selected))
	for i, idx := range selected {
		doc := candidates[idx].Copy()
		doc.Score = relevance[idx]
		result[i] = doc
	}
	return result
}

package model

import "math"

// EmbeddingDimension is the dimension of every stored embedding vector.
// It must match the output of the configured embedding model exactly.
const EmbeddingDimension = 1536

// CosineSimilarity returns the cosine similarity of a and b.
// Vectors of different length, or a zero vector, yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}

// ToFloat32 converts an embedding returned by the LLM client into the stored representation
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

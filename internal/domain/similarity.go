package domain

import "math"

// CosineSimilarity computes the cosine similarity of two vectors.
// Returns 0 when either vector has zero norm or the lengths differ.
// Output is within [-1, 1] up to floating point error.
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

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ClampScore narrows a similarity score to [0, 1].
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// ScorePercent converts a similarity score to a percentage with two
// decimal places. Negative scores map to 0.
func ScorePercent(s float64) float64 {
	return math.Round(ClampScore(s)*10000) / 100
}

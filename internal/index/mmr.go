package index

import (
	"math"

	"github.com/philippgille/chromem-go"
)

// maximalMarginalRelevance selects up to limit results from candidates,
// balancing relevance against redundancy among those already selected:
// score = lambda*similarity - (1-lambda)*maxSimToSelected.
// Candidates arrive ranked by similarity, so the first pick is always
// the nearest neighbor.
func maximalMarginalRelevance(candidates []chromem.Result, limit int, lambda float64) []chromem.Result {
	if len(candidates) <= limit {
		return candidates
	}
	if lambda < 0 {
		lambda = 0
	} else if lambda > 1 {
		lambda = 1
	}

	selected := make([]chromem.Result, 0, limit)
	remaining := append([]chromem.Result(nil), candidates...)

	for len(selected) < limit && len(remaining) > 0 {
		bestIdx := -1
		best := math.Inf(-1)

		for i, cand := range remaining {
			maxSim := 0.0
			for _, sel := range selected {
				if sim := cosineSimilarity(cand.Embedding, sel.Embedding); sim > maxSim {
					maxSim = sim
				}
			}

			score := lambda*float64(cand.Similarity) - (1-lambda)*maxSim
			if score > best {
				best = score
				bestIdx = i
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func cosineSimilarity(a, b []float32) float64 {
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

package domain

import (
	"math"
	"sort"
)

// CosineDistance returns 1 - cosine similarity. Vectors with mismatched
// length or zero magnitude have no direction and are treated as orthogonal (1.0).
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	d := 1 - dotProduct/(math.Sqrt(normA)*math.Sqrt(normB))
	if d < 0 {
		return 0 // rounding
	}
	return d
}

// IsZeroVector reports whether every component is zero.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Nearest sorts hits by ascending distance, ties broken by id, and keeps at most topK.
func Nearest(hits []RankedHit, topK int) []RankedHit {
	if topK <= 0 {
		return []RankedHit{}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}

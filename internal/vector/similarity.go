package vector

import "math"

// cosineSimilarity computes the cosine similarity between two vectors,
// normalized into [0,1]. Mismatched lengths and zero vectors score 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	// Raw cosine lies in [-1,1]; shift into [0,1] so scores compose with the
	// similarity floor.
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}

// matchesFilters reports whether a record's metadata satisfies every filter
// entry by exact equality. An empty filter set matches everything.
func matchesFilters(record Record, filters map[string]any) bool {
	if len(filters) == 0 {
		return true
	}
	for key, want := range filters {
		got, exists := record.Metadata[key]
		if !exists || got != want {
			return false
		}
	}
	return true
}

package vector

import (
	"fmt"
	"sort"

	"github.com/hyperjump/resumechat/pkg/utils"
)

// scoreAll computes the inner product of query against each row of the flat
// matrix data (n rows of dim floats).
func scoreAll(query, data []float32, dim int) []Hit {
	n := len(data) / dim
	hits := make([]Hit, n)
	for i := 0; i < n; i++ {
		hits[i] = Hit{Ordinal: i, Score: utils.Dot(query, data[i*dim:(i+1)*dim])}
	}
	return hits
}

// topK sorts hits by descending score, lower ordinal first on ties, and keeps k.
func topK(hits []Hit, k int) []Hit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

func checkDim(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, got, want)
	}
	return nil
}

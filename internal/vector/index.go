// Package vector provides exact inner-product indexes addressed by ordinal position.
package vector

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// ErrCorruptIndex is returned when a persisted index cannot be decoded.
var ErrCorruptIndex = errors.New("corrupt index file")

// Index stores vectors by insertion order. The i-th vector added has ordinal i,
// which callers use to look up the matching metadata entry.
type Index interface {
	// Add appends vectors; the first gets ordinal Len() before the call.
	Add(ctx context.Context, vectors [][]float32) error
	// Search returns up to k hits ordered by descending inner product.
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	Len() int
	Dimensions() int
	Type() string
	// Save persists the index, replacing path atomically.
	Save(path string) error
	Close() error
}

// Hit is a single search result.
type Hit struct {
	Ordinal int
	Score   float32
}

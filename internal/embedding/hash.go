package embedding

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/hyperjump/resumechat/pkg/utils"
)

// HashEmbedder is a deterministic bag-of-words embedder. Each term is hashed
// into one of the dimensions with a hash-derived sign, so texts sharing terms
// get a positive inner product. It needs no model files.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder producing vectors of the given dimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Name returns the model identifier, including the dimension.
func (e *HashEmbedder) Name() string {
	return fmt.Sprintf("hash-bow-%d", e.dimensions)
}

// Embed returns the L2-normalized hashed term-frequency vector of text.
// Text with no terms embeds to the zero vector.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	for _, term := range Terms(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(term))
		sum := h.Sum32()
		idx := int(sum % uint32(e.dimensions))
		if sum&(1<<31) != 0 {
			emb[idx]--
		} else {
			emb[idx]++
		}
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}

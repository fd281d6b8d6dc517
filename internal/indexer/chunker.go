// Package indexer splits documents into chunks and builds the persisted vector index.
package indexer

import (
	"strings"

	"github.com/hyperjump/resumechat/internal/models"
)

// Chunker splits text into overlapping word windows.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap (in words).
// A negative overlap is treated as zero. chunkSize must be positive; config
// validation rejects anything else.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Size returns the window size in words.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the number of words shared by consecutive windows.
func (c *Chunker) Overlap() int { return c.chunkOverlap }

// Chunk splits text into chunks tagged with source. IDs start at zero and
// follow emission order. Whitespace-only text yields no chunks.
func (c *Chunker) Chunk(source, text string) []models.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 || c.chunkSize <= 0 {
		return nil
	}
	var chunks []models.Chunk
	for start := 0; start < len(words); {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, models.Chunk{
			ID:     len(chunks),
			Text:   strings.Join(words[start:end], " "),
			Source: source,
		})
		if end >= len(words) {
			break
		}
		next := end - c.chunkOverlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// ChunkAll chunks every document in order.
func (c *Chunker) ChunkAll(docs []models.Document) []models.Chunk {
	var out []models.Chunk
	for _, d := range docs {
		out = append(out, c.Chunk(d.SourceID, d.RawText)...)
	}
	return out
}

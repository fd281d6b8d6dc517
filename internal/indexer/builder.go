package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/resumechat/internal/config"
	"github.com/hyperjump/resumechat/internal/embedding"
	"github.com/hyperjump/resumechat/internal/models"
	"github.com/hyperjump/resumechat/internal/vector"
	"github.com/hyperjump/resumechat/pkg/utils"
	"go.uber.org/zap"
)

// Builder embeds chunks and writes the index and metadata artifacts.
type Builder struct {
	embedder     embedding.Embedder
	indexType    string
	batchSize    int
	indexPath    string
	metadataPath string
	logger       *zap.Logger // optional
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets a logger for build progress.
func WithLogger(l *zap.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithBatchSize overrides the number of texts sent to the embedder per call.
func WithBatchSize(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// BuildResult summarizes a completed build.
type BuildResult struct {
	ChunkCount   int
	Dimensions   int
	Embedder     string
	IndexType    string
	IndexPath    string
	MetadataPath string
	Duration     time.Duration
}

// NewBuilder creates a builder writing to the artifact paths in cfg.
func NewBuilder(embedder embedding.Embedder, cfg *config.Config, opts ...BuilderOption) *Builder {
	b := &Builder{
		embedder:     embedder,
		indexType:    cfg.Index.Type,
		batchSize:    cfg.Embedding.BatchSize,
		indexPath:    cfg.Storage.IndexPath,
		metadataPath: cfg.Storage.MetadataPath,
	}
	if b.batchSize <= 0 {
		b.batchSize = 32
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build embeds and normalizes every chunk, builds an exact inner-product index
// and persists it with the chunk metadata. Both files are replaced; the index is
// written first. An empty chunk list produces an empty, valid index.
func (b *Builder) Build(ctx context.Context, chunks []models.Chunk) (*BuildResult, error) {
	start := time.Now()
	dim := b.embedder.Dimensions()
	idx, err := vector.NewIndex(b.indexType, dim)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	defer idx.Close()

	if len(chunks) == 0 && b.logger != nil {
		b.logger.Warn("building empty index: no chunks to embed")
	}

	for lo := 0; lo < len(chunks); lo += b.batchSize {
		hi := lo + b.batchSize
		if hi > len(chunks) {
			hi = len(chunks)
		}
		texts := make([]string, hi-lo)
		for i, ch := range chunks[lo:hi] {
			texts[i] = ch.Text
		}
		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}
		for _, v := range vectors {
			utils.NormalizeL2(v)
		}
		if err := idx.Add(ctx, vectors); err != nil {
			return nil, fmt.Errorf("failed to index vectors: %w", err)
		}
		if b.logger != nil {
			b.logger.Debug("embedded batch", zap.Int("from", lo), zap.Int("to", hi), zap.Int("total", len(chunks)))
		}
	}

	if idx.Len() != len(chunks) {
		return nil, fmt.Errorf("index holds %d vectors for %d chunks", idx.Len(), len(chunks))
	}
	if err := idx.Save(b.indexPath); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	if err := WriteMetadata(b.metadataPath, chunks); err != nil {
		return nil, fmt.Errorf("save metadata: %w", err)
	}

	res := &BuildResult{
		ChunkCount:   len(chunks),
		Dimensions:   dim,
		Embedder:     b.embedder.Name(),
		IndexType:    idx.Type(),
		IndexPath:    b.indexPath,
		MetadataPath: b.metadataPath,
		Duration:     time.Since(start),
	}
	if b.logger != nil {
		b.logger.Info("index built",
			zap.Int("chunks", res.ChunkCount),
			zap.Int("dimensions", res.Dimensions),
			zap.String("embedder", res.Embedder),
			zap.String("index_path", res.IndexPath),
			zap.Duration("duration", res.Duration))
	}
	return res, nil
}

// SourceStats counts bytes, words and chunks per document, in document order.
func SourceStats(docs []models.Document, chunks []models.Chunk) []models.SourceRecord {
	perSource := make(map[string]int, len(docs))
	for _, ch := range chunks {
		perSource[ch.Source]++
	}
	out := make([]models.SourceRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.SourceRecord{
			Source: d.SourceID,
			Bytes:  len(d.RawText),
			Words:  len(strings.Fields(d.RawText)),
			Chunks: perSource[d.SourceID],
		})
	}
	return out
}

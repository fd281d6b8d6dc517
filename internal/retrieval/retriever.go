// Package retrieval answers nearest-neighbour queries against the persisted index.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperjump/resumechat/internal/config"
	"github.com/hyperjump/resumechat/internal/embedding"
	"github.com/hyperjump/resumechat/internal/indexer"
	"github.com/hyperjump/resumechat/internal/models"
	"github.com/hyperjump/resumechat/internal/vector"
	"github.com/hyperjump/resumechat/pkg/utils"
	"go.uber.org/zap"
)

// bundle is an index and its metadata loaded together. Its contents are never
// mutated after publication; readers hold mu for reading while they touch the
// index so a replaced bundle is closed only once they are done with it.
type bundle struct {
	index    vector.Index
	chunks   []models.Chunk
	loadedAt time.Time

	mu     sync.RWMutex
	closed bool
}

// acquire pins b for reading. It reports false if b has already been retired.
func (b *bundle) acquire() bool {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return false
	}
	return true
}

func (b *bundle) release() { b.mu.RUnlock() }

// retire waits for in-flight readers and closes the index.
func (b *bundle) retire() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

// Retriever embeds questions and searches the index built by indexer.Builder.
// Artifacts are loaded once on first use (or by Warm) and then shared by all
// callers. Only Reload and Close contend with searches.
type Retriever struct {
	embedder     embedding.Embedder
	indexType    string
	indexPath    string
	metadataPath string
	logger       *zap.Logger

	mu      sync.Mutex
	current atomic.Pointer[bundle]
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets a logger for load and reload events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// New creates a retriever for the artifacts named in cfg. Nothing is read until
// Warm or the first query.
func New(embedder embedding.Embedder, cfg *config.Config, opts ...Option) *Retriever {
	r := &Retriever{
		embedder:     embedder,
		indexType:    cfg.Index.Type,
		indexPath:    cfg.Storage.IndexPath,
		metadataPath: cfg.Storage.MetadataPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = utils.OrNop(r.logger)
	return r
}

// Warm loads the artifacts now so a missing or inconsistent index fails at startup.
func (r *Retriever) Warm() error {
	_, err := r.ensureLoaded()
	return err
}

func (r *Retriever) ensureLoaded() (*bundle, error) {
	if b := r.current.Load(); b != nil {
		return b, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b := r.current.Load(); b != nil {
		return b, nil
	}
	b, err := r.load()
	if err != nil {
		return nil, err
	}
	r.current.Store(b)
	return b, nil
}

// pinned returns the current bundle, loading it if needed, pinned for reading.
// Callers must release it.
func (r *Retriever) pinned() (*bundle, error) {
	for {
		b, err := r.ensureLoaded()
		if err != nil {
			return nil, err
		}
		if b.acquire() {
			return b, nil
		}
	}
}

// Reload reads the artifacts again and swaps them in if they are consistent.
// On error the previously loaded bundle stays in service. The replaced index is
// closed once the searches already using it have finished.
func (r *Retriever) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := r.load()
	if err != nil {
		r.logger.Warn("index reload rejected, keeping current index", zap.Error(err))
		return err
	}
	old := r.current.Swap(b)
	r.logger.Info("index reloaded", zap.Int("vectors", len(b.chunks)))
	if old != nil {
		if err := old.retire(); err != nil {
			r.logger.Warn("closing replaced index failed", zap.Error(err))
		}
	}
	return nil
}

func (r *Retriever) load() (*bundle, error) {
	idx, err := vector.Load(r.indexType, r.indexPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
		}
		return nil, fmt.Errorf("load index: %w", err)
	}
	chunks, err := indexer.ReadMetadata(r.metadataPath)
	if err != nil {
		_ = idx.Close()
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
		}
		return nil, err
	}
	if idx.Len() != len(chunks) {
		n := idx.Len()
		_ = idx.Close()
		return nil, fmt.Errorf("%w: index has %d vectors, metadata has %d entries", ErrOrdinalMismatch, n, len(chunks))
	}
	if idx.Dimensions() != r.embedder.Dimensions() {
		d := idx.Dimensions()
		_ = idx.Close()
		return nil, fmt.Errorf("%w: index has %d dimensions, embedder %s produces %d",
			vector.ErrDimensionMismatch, d, r.embedder.Name(), r.embedder.Dimensions())
	}
	r.logger.Debug("index loaded",
		zap.String("index_path", r.indexPath),
		zap.Int("vectors", len(chunks)))
	return &bundle{index: idx, chunks: chunks, loadedAt: time.Now()}, nil
}

// Retrieve returns up to topK chunks most similar to question, best first.
// topK <= 0 returns an empty result without touching the index.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]models.Chunk, error) {
	scored, err := r.RetrieveScored(ctx, question, topK)
	if err != nil {
		return nil, err
	}
	out := make([]models.Chunk, len(scored))
	for i, s := range scored {
		out[i] = s.Chunk
	}
	return out, nil
}

// RetrieveScored is Retrieve with scores and ordinals attached.
func (r *Retriever) RetrieveScored(ctx context.Context, question string, topK int) ([]models.ScoredChunk, error) {
	if topK <= 0 {
		return []models.ScoredChunk{}, nil
	}
	b, err := r.ensureLoaded()
	if err != nil {
		return nil, err
	}
	if len(b.chunks) == 0 {
		return []models.ScoredChunk{}, nil
	}
	query, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	utils.NormalizeL2(query)

	// The embed call may be slow; pin whichever bundle is current now.
	b, err = r.pinned()
	if err != nil {
		return nil, err
	}
	defer b.release()
	hits, err := b.index.Search(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	out := make([]models.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		if h.Ordinal < 0 || h.Ordinal >= len(b.chunks) {
			return nil, fmt.Errorf("%w: ordinal %d outside metadata of %d entries", ErrOrdinalMismatch, h.Ordinal, len(b.chunks))
		}
		out = append(out, models.ScoredChunk{Chunk: b.chunks[h.Ordinal], Ordinal: h.Ordinal, Score: h.Score})
	}
	return out, nil
}

// Stats describes the loaded artifacts.
type Stats struct {
	Loaded       bool
	IndexSize    int
	MetadataSize int
	Dimensions   int
	IndexType    string
	LoadedAt     time.Time
}

// Stats reports on the currently loaded bundle without triggering a load.
func (r *Retriever) Stats() Stats {
	var b *bundle
	for {
		b = r.current.Load()
		if b == nil {
			return Stats{}
		}
		if b.acquire() {
			break
		}
	}
	defer b.release()
	return Stats{
		Loaded:       true,
		IndexSize:    b.index.Len(),
		MetadataSize: len(b.chunks),
		Dimensions:   b.index.Dimensions(),
		IndexType:    b.index.Type(),
		LoadedAt:     b.loadedAt,
	}
}

// EmbedderName returns the name of the query embedder.
func (r *Retriever) EmbedderName() string {
	return r.embedder.Name()
}

// Close releases the loaded index after in-flight searches finish. The
// retriever must not be used afterwards.
func (r *Retriever) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b := r.current.Swap(nil); b != nil {
		return b.retire()
	}
	return nil
}

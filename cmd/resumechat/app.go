package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/resumechat/internal/chat"
	"github.com/hyperjump/resumechat/internal/config"
	"github.com/hyperjump/resumechat/internal/embedding"
	"github.com/hyperjump/resumechat/internal/extract"
	"github.com/hyperjump/resumechat/internal/indexer"
	"github.com/hyperjump/resumechat/internal/llm"
	"github.com/hyperjump/resumechat/internal/loader"
	"github.com/hyperjump/resumechat/internal/models"
	"github.com/hyperjump/resumechat/internal/prompt"
	"github.com/hyperjump/resumechat/internal/retrieval"
	"github.com/hyperjump/resumechat/internal/storage"
	"github.com/hyperjump/resumechat/internal/vector"
)

// app holds the services shared by the commands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	embedder  embedding.Embedder
	retriever *retrieval.Retriever
	catalog   storage.Catalog // nil when unavailable
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	if cfg.Index.Type == string(vector.IndexTypeFAISS) && !vector.IsFAISSAvailable() {
		return nil, fmt.Errorf("index.type %q needs a binary built with -tags=faiss", cfg.Index.Type)
	}
	embedder, err := embedding.New(&cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	logger.Debug("embedder initialized",
		zap.String("embedder", embedder.Name()),
		zap.Int("dimensions", embedder.Dimensions()))

	return &app{
		cfg:       cfg,
		logger:    logger,
		embedder:  embedder,
		retriever: retrieval.New(embedder, cfg, retrieval.WithLogger(logger)),
		catalog:   openCatalog(cfg, logger),
	}, nil
}

// openCatalog opens the build catalog. A missing or broken catalog is logged
// and never stops the caller.
func openCatalog(cfg *config.Config, logger *zap.Logger) storage.Catalog {
	if cfg.Storage.CatalogPath == "" {
		return nil
	}
	c, err := storage.NewSQLiteCatalog(cfg.Storage.CatalogPath)
	if err != nil {
		logger.Warn("build catalog unavailable", zap.String("path", cfg.Storage.CatalogPath), zap.Error(err))
		return nil
	}
	return c
}

func (a *app) Close() {
	if a.retriever != nil {
		_ = a.retriever.Close()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.catalog != nil {
		_ = a.catalog.Close()
	}
}

// build loads the documents directory, chunks and embeds it, writes the
// artifacts and records the build in the catalog.
func (a *app) build(ctx context.Context) (*models.BuildRecord, error) {
	start := time.Now()
	extractor := extract.NewExtractor()
	for _, ext := range a.cfg.Index.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !extractor.Supports(ext) {
			a.logger.Warn("configured extension has no extractor",
				zap.String("extension", ext), zap.Strings("supported", extractor.Extensions()))
		}
	}
	ld := loader.New(extractor, a.cfg.Index.Extensions, loader.WithLogger(a.logger))
	docs, err := ld.Load(a.cfg.Storage.DocumentsDir)
	if err != nil {
		return nil, err
	}
	chunker := indexer.NewChunker(a.cfg.Index.ChunkSize, a.cfg.Index.ChunkOverlap)
	chunks := chunker.ChunkAll(docs)
	a.logger.Info("documents chunked", zap.Int("documents", len(docs)), zap.Int("chunks", len(chunks)))

	builder := indexer.NewBuilder(a.embedder, a.cfg, indexer.WithLogger(a.logger))
	res, err := builder.Build(ctx, chunks)
	if err != nil {
		return nil, err
	}

	rec := &models.BuildRecord{
		StartedAt:    start,
		FinishedAt:   time.Now(),
		Embedder:     res.Embedder,
		Dimensions:   res.Dimensions,
		IndexType:    res.IndexType,
		ChunkSize:    chunker.Size(),
		ChunkOverlap: chunker.Overlap(),
		ChunkCount:   res.ChunkCount,
		IndexPath:    res.IndexPath,
		MetadataPath: res.MetadataPath,
		Sources:      indexer.SourceStats(docs, chunks),
	}
	if a.catalog != nil {
		if err := a.catalog.RecordBuild(ctx, rec); err != nil {
			a.logger.Warn("failed to record build in catalog", zap.Error(err))
		}
	}
	return rec, nil
}

// checkEmbedder warns when the index was built by a different embedder than
// the one answering queries. It reports whether the two match; an empty or
// unavailable catalog counts as a match.
func (a *app) checkEmbedder(ctx context.Context) bool {
	if a.catalog == nil {
		return true
	}
	latest, err := a.catalog.LatestBuild(ctx)
	if errors.Is(err, storage.ErrNoBuilds) {
		return true
	}
	if err != nil {
		a.logger.Warn("could not read build catalog", zap.Error(err))
		return true
	}
	if latest.Embedder != a.embedder.Name() {
		a.logger.Warn("index was built with a different embedder; rebuild for meaningful results",
			zap.String("built_with", latest.Embedder),
			zap.String("querying_with", a.embedder.Name()))
		return false
	}
	return true
}

// chatService wires the retriever, the language model client and the prompt
// assembler into the chat pipeline.
func (a *app) chatService() (*chat.Service, error) {
	client, err := llm.NewClient(&a.cfg.LLM, llm.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.logger.Debug("language model client ready", zap.String("provider", client.Provider()))
	assembler := prompt.NewAssembler(prompt.PersonaFromConfig(a.cfg.Persona))
	return chat.NewService(a.retriever, client, assembler, a.cfg, chat.WithLogger(a.logger)), nil
}

package embedding

import (
	"fmt"
	"path/filepath"

	"github.com/hyperjump/resumechat/internal/config"
	"go.uber.org/zap"
)

// New builds the embedder selected by cfg.Provider and wraps it in a query cache.
// When the ONNX runtime cannot be loaded it falls back to the hash embedder and
// logs a warning; the fallback has a different Name, so a mismatch against the
// build catalog is reported by the caller.
func New(cfg *config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	var e Embedder
	switch cfg.Provider {
	case "hash":
		e = NewHashEmbedder(cfg.Dimensions)
	case "remote":
		remote, err := NewRemoteEmbedder(RemoteConfig{
			BaseURL:    cfg.BaseURL,
			APIKeyEnv:  cfg.APIKeyEnv,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}, WithRemoteLogger(logger))
		if err != nil {
			return nil, err
		}
		e = remote
	case "onnx", "":
		vocab := cfg.VocabPath
		if vocab == "" {
			vocab = filepath.Join(filepath.Dir(cfg.ModelPath), "vocab.txt")
		}
		onnx, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, WithVocab(vocab))
		if err != nil {
			if logger != nil {
				logger.Warn("ONNX embedder unavailable, using hash embedder",
					zap.String("model_path", cfg.ModelPath), zap.String("vocab_path", vocab), zap.Error(err))
			}
			e = NewHashEmbedder(cfg.Dimensions)
			break
		}
		e = onnx
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	return WithCache(e, cfg.CacheSize), nil
}

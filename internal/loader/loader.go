// Package loader reads the source documents that feed an index build.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/resumechat/internal/models"
)

// TextExtractor turns a file into plain text.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// Loader lists a directory and extracts the files with accepted extensions.
type Loader struct {
	extractor  TextExtractor
	extensions map[string]struct{}
	logger     *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used to report skipped files.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// New returns a loader accepting the given extensions (".pdf", "md", ...).
func New(extractor TextExtractor, extensions []string, opts ...Option) *Loader {
	ld := &Loader{
		extractor:  extractor,
		extensions: make(map[string]struct{}, len(extensions)),
		logger:     zap.NewNop(),
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		ld.extensions[ext] = struct{}{}
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.logger == nil {
		ld.logger = zap.NewNop()
	}
	return ld
}

// Accepts reports whether name has one of the configured extensions.
func (ld *Loader) Accepts(name string) bool {
	_, ok := ld.extensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Load reads every accepted regular file directly inside dir, in name order.
// The source id of each document is its file name. Files that fail to extract
// are logged and skipped.
func (ld *Loader) Load(dir string) ([]models.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read documents dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	docs := make([]models.Document, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !ld.Accepts(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		text, err := ld.extractor.Extract(path)
		if err != nil {
			ld.logger.Warn("Skipping document", zap.String("path", path), zap.Error(err))
			continue
		}
		ld.logger.Debug("Loaded document", zap.String("source", e.Name()), zap.Int("bytes", len(text)))
		docs = append(docs, models.Document{SourceID: e.Name(), RawText: text})
	}
	return docs, nil
}

package e2e

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/resumechat/internal/config"
	"github.com/hyperjump/resumechat/internal/embedding"
	"github.com/hyperjump/resumechat/internal/extract"
	"github.com/hyperjump/resumechat/internal/indexer"
	"github.com/hyperjump/resumechat/internal/loader"
	"github.com/hyperjump/resumechat/internal/models"
	"github.com/hyperjump/resumechat/internal/retrieval"
)

const e2eTopK = 3

// TestE2E_ProfileRetrieval writes every section as a file, cycling through the
// supported formats, builds the index from the directory and checks that each
// question retrieves its section.
func TestE2E_ProfileRetrieval(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Embedding.Provider = "hash"
	cfg.Index.Extensions = SupportedFileExtensions
	cfg.Storage.DocumentsDir = filepath.Join(dir, "docs")
	cfg.Storage.IndexPath = filepath.Join(dir, "artifacts", "index.bin")
	cfg.Storage.MetadataPath = filepath.Join(dir, "artifacts", "metadata.json")
	if err := os.MkdirAll(cfg.Storage.DocumentsDir, 0755); err != nil {
		t.Fatal(err)
	}

	corpus := BuildCorpus()
	fileOf := make(map[string]string)
	for i, s := range corpus.Sections {
		ext := SupportedFileExtensions[i%len(SupportedFileExtensions)]
		name := s.Name + ext
		data, err := WriteMinimalFile(ext, s.Content)
		if err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(cfg.Storage.DocumentsDir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
		fileOf[s.Name] = name
	}

	embedder, err := embedding.New(&cfg.Embedding, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer embedder.Close()

	docs, err := loader.New(extract.NewExtractor(), cfg.Index.Extensions).Load(cfg.Storage.DocumentsDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != corpus.TotalDocs {
		t.Fatalf("loaded %d documents, want %d", len(docs), corpus.TotalDocs)
	}
	chunks := indexer.NewChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap).ChunkAll(docs)
	res, err := indexer.NewBuilder(embedder, cfg).Build(context.Background(), chunks)
	if err != nil {
		t.Fatal(err)
	}
	if res.ChunkCount != corpus.TotalDocs {
		t.Fatalf("indexed %d chunks, want one per section", res.ChunkCount)
	}

	retriever := retrieval.New(embedder, cfg)
	defer retriever.Close()
	if err := retriever.Warm(); err != nil {
		t.Fatal(err)
	}

	for _, tc := range corpus.TestCases {
		t.Run(tc.Description, func(t *testing.T) {
			got, err := retriever.Retrieve(context.Background(), tc.Query, e2eTopK)
			if err != nil {
				t.Fatalf("retrieve: %v", err)
			}
			expected := make([]string, 0, len(tc.ExpectedSections))
			for _, name := range tc.ExpectedSections {
				expected = append(expected, fileOf[name])
			}
			if !containsAny(got, expected) {
				t.Errorf("query %q: expected one of %v, got %v", tc.Query, expected, sources(got))
			}
		})
	}
}

// TestE2E_ChunkOverlapAcrossLongSection checks that a section longer than one
// window is split and that neighbouring chunks share the overlap.
func TestE2E_ChunkOverlapAcrossLongSection(t *testing.T) {
	corpus := BuildCorpus()
	var b strings.Builder
	for _, s := range corpus.Sections {
		b.WriteString(s.Content)
		b.WriteString(" ")
	}
	chunker := indexer.NewChunker(40, 10)
	chunks := chunker.Chunk("profile.md", b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		cur := strings.Fields(chunks[i].Text)
		if strings.Join(prev[len(prev)-10:], " ") != strings.Join(cur[:10], " ") {
			t.Errorf("chunk %d does not start with the last 10 words of chunk %d", i, i-1)
		}
	}
}

func sources(chunks []models.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Source
	}
	return out
}

func containsAny(got []models.Chunk, expected []string) bool {
	set := make(map[string]bool)
	for _, c := range got {
		set[c.Source] = true
	}
	for _, s := range expected {
		if set[s] {
			return true
		}
	}
	return false
}

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/resumechat/internal/models"
)

func newTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	c, err := NewSQLiteCatalog(filepath.Join(t.TempDir(), "nested", "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSQLiteCatalog_RecordAndLatest(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	if _, err := c.LatestBuild(ctx); !errors.Is(err, ErrNoBuilds) {
		t.Fatalf("empty catalog: got %v, want ErrNoBuilds", err)
	}

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := &models.BuildRecord{
		StartedAt:    start,
		FinishedAt:   start.Add(2 * time.Second),
		Embedder:     "hash-bow-384",
		Dimensions:   384,
		IndexType:    "flat",
		ChunkSize:    300,
		ChunkOverlap: 50,
		ChunkCount:   2,
		IndexPath:    "/tmp/index.bin",
		MetadataPath: "/tmp/metadata.json",
		Sources: []models.SourceRecord{
			{Source: "resume.pdf", Bytes: 2048, Words: 310, Chunks: 2},
			{Source: "about.md", Bytes: 10, Words: 0, Chunks: 0},
		},
	}
	if err := c.RecordBuild(ctx, first); err != nil {
		t.Fatal(err)
	}
	if first.ID == "" {
		t.Fatal("RecordBuild should assign an ID")
	}

	second := &models.BuildRecord{
		StartedAt:  start.Add(time.Hour),
		FinishedAt: start.Add(time.Hour + time.Second),
		Embedder:   "onnx:model.onnx",
		Dimensions: 384,
		IndexType:  "flat",
		ChunkSize:  300,
		ChunkCount: 1,
		Sources:    []models.SourceRecord{{Source: "resume.pdf", Bytes: 1, Words: 1, Chunks: 1}},
	}
	if err := c.RecordBuild(ctx, second); err != nil {
		t.Fatal(err)
	}

	latest, err := c.LatestBuild(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != second.ID || latest.Embedder != "onnx:model.onnx" {
		t.Errorf("latest = %+v", latest)
	}
	if !latest.FinishedAt.Equal(second.FinishedAt) {
		t.Errorf("finished_at = %v, want %v", latest.FinishedAt, second.FinishedAt)
	}
	if len(latest.Sources) != 1 || latest.Sources[0].Source != "resume.pdf" {
		t.Errorf("sources = %+v", latest.Sources)
	}

	n, err := c.CountBuilds(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("CountBuilds = %d, want 2", n)
	}
}

func TestSQLiteCatalog_ListBuilds(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		b := &models.BuildRecord{
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
			Embedder:   "hash-bow-8",
			Dimensions: 8,
			IndexType:  "flat",
			ChunkSize:  300,
			ChunkCount: i,
		}
		if err := c.RecordBuild(ctx, b); err != nil {
			t.Fatal(err)
		}
	}

	builds, err := c.ListBuilds(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(builds) != 2 {
		t.Fatalf("len = %d, want 2", len(builds))
	}
	if builds[0].ChunkCount != 2 || builds[1].ChunkCount != 1 {
		t.Errorf("want newest first, got %d then %d", builds[0].ChunkCount, builds[1].ChunkCount)
	}
	if builds[0].Sources != nil {
		t.Error("ListBuilds should not load sources")
	}
}

func TestSQLiteCatalog_DuplicateID(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	b := &models.BuildRecord{ID: "fixed", Embedder: "e", IndexType: "flat",
		Sources: []models.SourceRecord{{Source: "a.txt"}}}
	if err := c.RecordBuild(ctx, b); err != nil {
		t.Fatal(err)
	}
	dup := &models.BuildRecord{ID: "fixed", Embedder: "e", IndexType: "flat"}
	if err := c.RecordBuild(ctx, dup); err == nil {
		t.Fatal("expected error for duplicate build id")
	}

	latest, err := c.LatestBuild(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(latest.Sources) != 1 {
		t.Errorf("failed insert must not touch existing sources: %+v", latest.Sources)
	}
}

func TestSQLiteCatalog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := NewSQLiteCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.RecordBuild(context.Background(), &models.BuildRecord{Embedder: "e", IndexType: "flat"}); err != nil {
		t.Fatal(err)
	}
	_ = c.Close()

	c, err = NewSQLiteCatalog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	n, err := c.CountBuilds(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CountBuilds after reopen = %d, want 1", n)
	}
}

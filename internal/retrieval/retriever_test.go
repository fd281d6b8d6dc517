package retrieval

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/resumechat/internal/config"
	"github.com/hyperjump/resumechat/internal/embedding"
	"github.com/hyperjump/resumechat/internal/indexer"
	"github.com/hyperjump/resumechat/internal/models"
	"github.com/hyperjump/resumechat/internal/vector"
	"go.uber.org/zap"
)

const resumeText = `Lok Avinashh holds a Bachelor of Technology degree in Computer Science and Engineering.
His degree coursework covered algorithms, operating systems and databases.
He worked as a backend engineer building Go microservices, Kafka pipelines and PostgreSQL schemas.
He enjoys hiking, chess and contributing to open source projects on weekends.
Certifications include AWS Solutions Architect Associate and Kubernetes Application Developer.`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Embedding.Dimensions = 256
	cfg.Storage.IndexPath = filepath.Join(dir, "index.bin")
	cfg.Storage.MetadataPath = filepath.Join(dir, "metadata.json")
	return cfg
}

func build(t *testing.T, cfg *config.Config, e embedding.Embedder, docs ...models.Document) []models.Chunk {
	t.Helper()
	chunks := indexer.NewChunker(12, 3).ChunkAll(docs)
	if _, err := indexer.NewBuilder(e, cfg).Build(context.Background(), chunks); err != nil {
		t.Fatal(err)
	}
	return chunks
}

func TestRetriever_Retrieve(t *testing.T) {
	cfg := testConfig(t)
	e := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	build(t, cfg, e, models.Document{SourceID: "resume.txt", RawText: resumeText})
	r := New(e, cfg, WithLogger(zap.NewNop()))
	defer r.Close()

	scored, err := r.RetrieveScored(context.Background(), "What is his degree?", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(scored) != 2 {
		t.Fatalf("got %d results, want 2", len(scored))
	}
	if scored[0].Score < scored[1].Score {
		t.Errorf("results not in descending score order: %v, %v", scored[0].Score, scored[1].Score)
	}
	if !strings.Contains(strings.ToLower(scored[0].Text), "degree") {
		t.Errorf("top chunk should mention degree: %q", scored[0].Text)
	}
	if scored[0].Source != "resume.txt" {
		t.Errorf("source = %q", scored[0].Source)
	}

	plain, err := r.Retrieve(context.Background(), "What is his degree?", 2)
	if err != nil {
		t.Fatal(err)
	}
	if plain[0] != scored[0].Chunk {
		t.Error("Retrieve and RetrieveScored disagree")
	}
}

func TestRetriever_TopKBounds(t *testing.T) {
	cfg := testConfig(t)
	e := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	chunks := build(t, cfg, e, models.Document{SourceID: "resume.txt", RawText: resumeText})
	r := New(e, cfg)
	ctx := context.Background()

	for _, k := range []int{0, -3} {
		got, err := r.Retrieve(ctx, "degree", k)
		if err != nil || len(got) != 0 {
			t.Errorf("k=%d: got %d results, err %v", k, len(got), err)
		}
	}
	if r.Stats().Loaded {
		t.Error("k<=0 should not load the index")
	}
	for _, k := range []int{1, 3, len(chunks) + 10} {
		got, err := r.Retrieve(ctx, "degree", k)
		if err != nil {
			t.Fatal(err)
		}
		want := k
		if want > len(chunks) {
			want = len(chunks)
		}
		if len(got) != want {
			t.Errorf("k=%d: got %d results, want %d", k, len(got), want)
		}
	}
}

func TestRetriever_MissingArtifacts(t *testing.T) {
	cfg := testConfig(t)
	r := New(embedding.NewHashEmbedder(cfg.Embedding.Dimensions), cfg)
	err := r.Warm()
	if !errors.Is(err, ErrIndexUnavailable) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want ErrIndexUnavailable wrapping fs.ErrNotExist", err)
	}
	if _, err := r.Retrieve(context.Background(), "x", 1); !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("Retrieve err = %v", err)
	}
}

func TestRetriever_MissingMetadata(t *testing.T) {
	cfg := testConfig(t)
	e := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	build(t, cfg, e, models.Document{SourceID: "a", RawText: "one two"})
	cfg.Storage.MetadataPath = filepath.Join(t.TempDir(), "gone.json")
	if err := New(e, cfg).Warm(); !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("err = %v, want ErrIndexUnavailable", err)
	}
}

func TestRetriever_OrdinalMismatch(t *testing.T) {
	cfg := testConfig(t)
	e := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	chunks := build(t, cfg, e, models.Document{SourceID: "resume.txt", RawText: resumeText})
	extra := append(chunks, models.Chunk{ID: 99, Text: "orphan", Source: "x"})
	if err := indexer.WriteMetadata(cfg.Storage.MetadataPath, extra); err != nil {
		t.Fatal(err)
	}
	if err := New(e, cfg).Warm(); !errors.Is(err, ErrOrdinalMismatch) {
		t.Errorf("err = %v, want ErrOrdinalMismatch", err)
	}
}

func TestRetriever_DimensionMismatch(t *testing.T) {
	cfg := testConfig(t)
	build(t, cfg, embedding.NewHashEmbedder(cfg.Embedding.Dimensions), models.Document{SourceID: "a", RawText: "one two"})
	err := New(embedding.NewHashEmbedder(64), cfg).Warm()
	if !errors.Is(err, vector.ErrDimensionMismatch) {
		t.Errorf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestRetriever_EmptyCorpus(t *testing.T) {
	cfg := testConfig(t)
	e := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	build(t, cfg, e)
	r := New(e, cfg)
	if err := r.Warm(); err != nil {
		t.Fatal(err)
	}
	got, err := r.Retrieve(context.Background(), "anything", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results from empty index", len(got))
	}
}

type failingEmbedder struct{ *embedding.HashEmbedder }

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, &embedding.EmbedError{Provider: "test", Err: errors.New("unavailable")}
}

func TestRetriever_EmbedFailure(t *testing.T) {
	cfg := testConfig(t)
	e := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	build(t, cfg, e, models.Document{SourceID: "a", RawText: resumeText})
	r := New(failingEmbedder{e}, cfg)
	_, err := r.Retrieve(context.Background(), "degree", 2)
	var embedErr *embedding.EmbedError
	if !errors.As(err, &embedErr) {
		t.Errorf("err = %v, want EmbedError", err)
	}
}

func TestRetriever_ConcurrentFirstUse(t *testing.T) {
	cfg := testConfig(t)
	e := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	build(t, cfg, e, models.Document{SourceID: "resume.txt", RawText: resumeText})
	r := New(e, cfg)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Retrieve(context.Background(), "Kafka pipelines", 2); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if !r.Stats().Loaded {
		t.Error("bundle should be loaded")
	}
}

func TestRetriever_Reload(t *testing.T) {
	cfg := testConfig(t)
	e := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	build(t, cfg, e, models.Document{SourceID: "old.txt", RawText: "chess hiking weekends"})
	r := New(e, cfg)
	ctx := context.Background()
	got, err := r.Retrieve(ctx, "chess", 1)
	if err != nil || got[0].Source != "old.txt" {
		t.Fatalf("before reload: %v %v", got, err)
	}

	build(t, cfg, e, models.Document{SourceID: "new.txt", RawText: "chess grandmaster tournaments"})
	got, _ = r.Retrieve(ctx, "chess", 1)
	if got[0].Source != "old.txt" {
		t.Error("index must not change before Reload")
	}
	if err := r.Reload(); err != nil {
		t.Fatal(err)
	}
	got, _ = r.Retrieve(ctx, "chess", 1)
	if got[0].Source != "new.txt" {
		t.Errorf("after reload source = %q", got[0].Source)
	}

	// half-replaced pair is rejected and the current bundle keeps serving
	if err := indexer.WriteMetadata(cfg.Storage.MetadataPath, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); !errors.Is(err, ErrOrdinalMismatch) {
		t.Errorf("reload err = %v, want ErrOrdinalMismatch", err)
	}
	got, err = r.Retrieve(ctx, "chess", 1)
	if err != nil || got[0].Source != "new.txt" {
		t.Errorf("after rejected reload: %v %v", got, err)
	}
}

func TestRetriever_ReloadRetiresReplacedBundle(t *testing.T) {
	cfg := testConfig(t)
	e := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	build(t, cfg, e, models.Document{SourceID: "old.txt", RawText: resumeText})
	r := New(e, cfg)
	defer r.Close()
	if err := r.Warm(); err != nil {
		t.Fatal(err)
	}
	old := r.current.Load()

	if err := r.Reload(); err != nil {
		t.Fatal(err)
	}
	if !old.closed {
		t.Error("replaced bundle should be closed after Reload")
	}
	if old.acquire() {
		old.release()
		t.Error("retired bundle must not be acquirable")
	}
	cur := r.current.Load()
	if cur == old || cur.closed {
		t.Fatal("current bundle should be the fresh, open one")
	}

	// a rejected reload leaves the current bundle open
	if err := indexer.WriteMetadata(cfg.Storage.MetadataPath, nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err == nil {
		t.Fatal("expected reload to be rejected")
	}
	if cur.closed {
		t.Error("rejected reload closed the serving bundle")
	}

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if !cur.closed {
		t.Error("Close should retire the current bundle")
	}
}

func TestRetriever_ReloadWaitsForInFlightSearch(t *testing.T) {
	cfg := testConfig(t)
	e := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	build(t, cfg, e, models.Document{SourceID: "resume.txt", RawText: resumeText})
	r := New(e, cfg)
	defer r.Close()
	if err := r.Warm(); err != nil {
		t.Fatal(err)
	}

	old, err := r.pinned()
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- r.Reload() }()

	select {
	case <-done:
		t.Fatal("Reload returned while a search still held the old bundle")
	case <-time.After(50 * time.Millisecond):
	}
	if old.closed {
		t.Error("bundle closed under an in-flight reader")
	}
	old.release()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if !old.closed {
		t.Error("bundle should be closed once the reader released it")
	}
}

func TestRetriever_SearchDuringReloads(t *testing.T) {
	cfg := testConfig(t)
	e := embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	build(t, cfg, e, models.Document{SourceID: "resume.txt", RawText: resumeText})
	r := New(e, cfg)
	defer r.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := r.Retrieve(context.Background(), "Kafka pipelines", 2); err != nil {
					errs <- err
					return
				}
				_ = r.Stats()
			}
		}()
	}
	for i := 0; i < 10; i++ {
		if err := r.Reload(); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

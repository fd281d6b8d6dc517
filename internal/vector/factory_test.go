package vector

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func availableTypes() []string {
	types := []string{"flat"}
	if IsFAISSAvailable() {
		types = append(types, "faiss")
	}
	return types
}

func TestNewIndex_Empty(t *testing.T) {
	idx, err := NewIndex("", 3)
	if err != nil {
		t.Fatalf("NewIndex(''): %v", err)
	}
	defer idx.Close()
	if idx.Type() != "flat" || idx.Len() != 0 {
		t.Errorf("got type=%s len=%d", idx.Type(), idx.Len())
	}
}

func TestNewIndex_Unknown(t *testing.T) {
	if _, err := NewIndex("hnsw", 3); err == nil {
		t.Error("expected error for unknown index type")
	}
	if _, err := Load("hnsw", "x"); err == nil {
		t.Error("expected error for unknown index type")
	}
}

func TestNewIndex_InvalidDimension(t *testing.T) {
	if _, err := NewIndex("flat", 0); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestNewIndex_FAISSUnavailableIsNil(t *testing.T) {
	if IsFAISSAvailable() {
		t.Skip("FAISS compiled in")
	}
	idx, err := NewIndex("faiss", 3)
	if err == nil || idx != nil {
		t.Errorf("expected nil index and error, got %v, %v", idx, err)
	}
}

func TestIndex_SaveLoadRoundTrip(t *testing.T) {
	for _, typ := range availableTypes() {
		t.Run(typ, func(t *testing.T) {
			ctx := context.Background()
			idx, err := NewIndex(typ, 2)
			if err != nil {
				t.Fatal(err)
			}
			defer idx.Close()
			vecs := [][]float32{{1, 0}, {0, 1}, {0.6, 0.8}}
			if err := idx.Add(ctx, vecs); err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(t.TempDir(), "index.bin")
			if err := idx.Save(path); err != nil {
				t.Fatal(err)
			}

			loaded, err := Load(typ, path)
			if err != nil {
				t.Fatal(err)
			}
			defer loaded.Close()
			if loaded.Len() != 3 || loaded.Dimensions() != 2 {
				t.Fatalf("loaded len=%d dim=%d", loaded.Len(), loaded.Dimensions())
			}
			hits, err := loaded.Search(ctx, []float32{0, 1}, 1)
			if err != nil {
				t.Fatal(err)
			}
			if len(hits) != 1 || hits[0].Ordinal != 1 {
				t.Errorf("hits = %+v, want ordinal 1", hits)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("flat", filepath.Join(t.TempDir(), "missing.bin"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("err = %v, want fs.ErrNotExist", err)
	}
}

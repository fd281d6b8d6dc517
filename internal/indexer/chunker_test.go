package indexer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/resumechat/internal/models"
)

func words(n int) []string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return w
}

func TestChunker_Chunk(t *testing.T) {
	c := NewChunker(3, 1)
	chunks := c.Chunk("doc1", "one two three four five six seven")
	want := []string{"one two three", "three four five", "five six seven"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks, want %d: %+v", len(chunks), len(want), chunks)
	}
	for i, ch := range chunks {
		if ch.Source != "doc1" {
			t.Errorf("chunk %d Source=%s", i, ch.Source)
		}
		if ch.ID != i {
			t.Errorf("chunk %d ID=%d", i, ch.ID)
		}
		if ch.Text != want[i] {
			t.Errorf("chunk %d Text=%q, want %q", i, ch.Text, want[i])
		}
	}
}

func TestChunker_ChunkEmpty(t *testing.T) {
	c := NewChunker(5, 1)
	for _, in := range []string{"", "   \n\t  "} {
		if chunks := c.Chunk("d", in); len(chunks) != 0 {
			t.Errorf("Chunk(%q) should be empty, got %v", in, chunks)
		}
	}
}

func TestChunker_Windows(t *testing.T) {
	tests := []struct {
		name          string
		total         int
		size, overlap int
		want          [][2]int
	}{
		{"single short doc", 10, 300, 50, [][2]int{{0, 10}}},
		{"exact fit", 300, 300, 50, [][2]int{{0, 300}}},
		{"310 words", 310, 300, 50, [][2]int{{0, 300}, {250, 310}}},
		{"no overlap", 7, 3, 0, [][2]int{{0, 3}, {3, 6}, {6, 7}}},
		{"negative overlap", 5, 2, -4, [][2]int{{0, 2}, {2, 4}, {4, 5}}},
		{"overlap equals size", 4, 2, 2, [][2]int{{0, 2}, {1, 3}, {2, 4}}},
		{"overlap exceeds size", 4, 2, 9, [][2]int{{0, 2}, {1, 3}, {2, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := words(tt.total)
			chunks := NewChunker(tt.size, tt.overlap).Chunk("s", strings.Join(w, " "))
			if len(chunks) != len(tt.want) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(tt.want))
			}
			for i, span := range tt.want {
				exp := strings.Join(w[span[0]:span[1]], " ")
				if chunks[i].Text != exp {
					t.Errorf("chunk %d = %q..., want span %v", i, firstWords(chunks[i].Text), span)
				}
			}
		})
	}
}

func TestChunker_TerminatesWhenOverlapNotSmaller(t *testing.T) {
	w := words(50)
	chunks := NewChunker(10, 10).Chunk("s", strings.Join(w, " "))
	// start advances by one word per chunk, stopping once a window reaches the end
	if len(chunks) != 41 {
		t.Fatalf("got %d chunks, want 41", len(chunks))
	}
	last := strings.Fields(chunks[len(chunks)-1].Text)
	if last[len(last)-1] != "w49" {
		t.Errorf("last chunk should end with final word, got %v", last)
	}
}

func TestChunker_Reconstruct(t *testing.T) {
	w := words(1000)
	size, overlap := 37, 11
	chunks := NewChunker(size, overlap).Chunk("s", strings.Join(w, " "))
	var rebuilt []string
	for i, ch := range chunks {
		cw := strings.Fields(ch.Text)
		if len(cw) > size {
			t.Fatalf("chunk %d has %d words > %d", i, len(cw), size)
		}
		if i == 0 {
			rebuilt = append(rebuilt, cw...)
			continue
		}
		rebuilt = append(rebuilt, cw[overlap:]...)
	}
	if strings.Join(rebuilt, " ") != strings.Join(w, " ") {
		t.Error("non-overlapping spans do not reconstruct the original word sequence")
	}
}

func TestChunker_ChunkAll(t *testing.T) {
	docs := []models.Document{
		{SourceID: "a.txt", RawText: "one two three four"},
		{SourceID: "b.txt", RawText: ""},
		{SourceID: "c.md", RawText: "five six"},
	}
	chunks := NewChunker(3, 1).ChunkAll(docs)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[2].Source != "c.md" || chunks[2].ID != 0 {
		t.Errorf("ids restart per document: %+v", chunks[2])
	}
}

func firstWords(s string) string {
	f := strings.Fields(s)
	if len(f) > 3 {
		f = f[:3]
	}
	return strings.Join(f, " ")
}

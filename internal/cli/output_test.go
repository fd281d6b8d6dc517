package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/resumechat/internal/models"
)

func sampleResponse() *models.RetrieveResponse {
	return &models.RetrieveResponse{
		Question:  "What is his degree?",
		QueryTime: 3,
		Total:     2,
		Results: []models.ScoredChunk{
			{Chunk: models.Chunk{ID: 0, Text: "B.Tech in\nAI & Data Science", Source: "resume.pdf"}, Ordinal: 0, Score: 0.61},
			{Chunk: models.Chunk{ID: 1, Text: "Chess player", Source: "about.md"}, Ordinal: 3, Score: 0.12},
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" compact ", OutputCompact, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteRetrieveResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRetrieveResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.RetrieveResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Total != 2 || decoded.Results[1].Ordinal != 3 || decoded.Results[0].Source != "resume.pdf" {
		t.Errorf("decoded: %+v", decoded)
	}
}

func TestWriteRetrieveResults_Compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRetrieveResults(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "1\t0.6100\tresume.pdf#0\tB.Tech in AI & Data Science" {
		t.Errorf("line 1: %q", lines[0])
	}
}

func TestWriteRetrieveResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRetrieveResults(&buf, sampleResponse(), OutputFormat("other")); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Found 2 chunks in 3ms", "Rank: 2 | Score: 0.1200 | Ordinal: 3", "Source: about.md (chunk 1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWriteStatus(t *testing.T) {
	st := &models.StatusResponse{Loaded: true, IndexType: "flat", IndexSize: 2, MetadataSize: 2, Dimensions: 384, Embedder: "hash-bow-384", DiskUsage: 2048}

	var buf bytes.Buffer
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"2 vectors, 2 metadata entries", "flat (384 dimensions)", "2.0 KiB", "none recorded"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in:\n%s", want, buf.String())
		}
	}

	st.LatestBuild = &models.BuildRecord{ID: "b1", ChunkCount: 2, Embedder: "hash-bow-384",
		Sources: []models.SourceRecord{{Source: "resume.pdf", Words: 310, Chunks: 2}}}
	buf.Reset()
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Last build: b1") || !strings.Contains(buf.String(), "resume.pdf") {
		t.Errorf("build not printed:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Builds:") {
		t.Errorf("history printed without a count:\n%s", buf.String())
	}

	st.BuildCount = 3
	st.RecentBuilds = []*models.BuildRecord{
		{ID: "b3", ChunkCount: 7, Embedder: "onnx-384"},
		{ID: "b2", ChunkCount: 5, Embedder: "hash-bow-384"},
	}
	buf.Reset()
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Builds:     3 recorded", "b3", "   7 chunks  onnx-384", "b2"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q in:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, st, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"latest_build"`) || !strings.Contains(buf.String(), `"build_count": 3`) {
		t.Errorf("json status: %s", buf.String())
	}
}

func TestWriteBuildSummary(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	WriteBuildSummary(&buf, &models.BuildRecord{
		StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond),
		Embedder: "hash-bow-384", Dimensions: 384, IndexType: "flat", ChunkCount: 4,
		IndexPath: "/a/index.bin", MetadataPath: "/a/metadata.json",
		Sources: []models.SourceRecord{{Source: "resume.pdf"}, {Source: "about.md"}},
	})
	if !strings.Contains(buf.String(), "Indexed 4 chunks from 2 documents in 1.5s") {
		t.Errorf("summary:\n%s", buf.String())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{20 * 1024, "20 KiB"},
		{-5, "0 B"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

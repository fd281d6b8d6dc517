package models

import "time"

// ScoredChunk is a retrieved chunk with its inner-product score and index position.
type ScoredChunk struct {
	Chunk
	Ordinal int     `json:"ordinal"`
	Score   float32 `json:"score"`
}

// DocumentLink points the client at a downloadable file.
type DocumentLink struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Answer   string        `json:"answer"`
	Document *DocumentLink `json:"document,omitempty"`
}

// RetrieveResponse is the body returned by POST /api/v1/retrieve.
type RetrieveResponse struct {
	Question  string        `json:"question"`
	Results   []ScoredChunk `json:"results"`
	Total     int           `json:"total"`
	QueryTime int64         `json:"query_time_ms"`
}

// BuildRecord describes one completed index build as stored in the catalog.
type BuildRecord struct {
	ID           string         `json:"id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Embedder     string         `json:"embedder"`
	Dimensions   int            `json:"dimensions"`
	IndexType    string         `json:"index_type"`
	ChunkSize    int            `json:"chunk_size"`
	ChunkOverlap int            `json:"chunk_overlap"`
	ChunkCount   int            `json:"chunk_count"`
	IndexPath    string         `json:"index_path"`
	MetadataPath string         `json:"metadata_path"`
	Sources      []SourceRecord `json:"sources,omitempty"`
}

// SourceRecord holds per-document statistics for a build.
type SourceRecord struct {
	Source string `json:"source"`
	Bytes  int    `json:"bytes"`
	Words  int    `json:"words"`
	Chunks int    `json:"chunks"`
}

// StatusResponse is the body returned by GET /api/v1/status.
type StatusResponse struct {
	Loaded       bool           `json:"loaded"`
	IndexType    string         `json:"index_type,omitempty"`
	IndexSize    int            `json:"index_size"`
	MetadataSize int            `json:"metadata_size"`
	Dimensions   int            `json:"dimensions"`
	Embedder     string         `json:"embedder"`
	DiskUsage    int64          `json:"disk_usage_bytes"`
	LatestBuild  *BuildRecord   `json:"latest_build,omitempty"`
	BuildCount   int64          `json:"build_count"`
	RecentBuilds []*BuildRecord `json:"recent_builds,omitempty"`
}

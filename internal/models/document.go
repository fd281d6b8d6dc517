// Package models defines the data structures shared by the indexing, retrieval and chat layers.
package models

// Document is the extracted text of one source file. It only lives between
// loading and chunking.
type Document struct {
	SourceID string `json:"source"`
	RawText  string `json:"-"`
}

// Chunk is one retrievable window of words from a document.
// Its JSON form is the persisted metadata record.
type Chunk struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

package models

import (
	"fmt"
	"strings"
)

// MaxTopK caps the number of chunks a single retrieve request may ask for.
const MaxTopK = 50

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Question string `json:"question"`
}

// Validate trims the question and rejects an empty one.
func (r *ChatRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	return nil
}

// RetrieveRequest is the body of POST /api/v1/retrieve.
type RetrieveRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Validate ensures the question is present and normalizes TopK.
// A zero TopK takes defaultTopK; values above MaxTopK are capped.
func (r *RetrieveRequest) Validate(defaultTopK int) error {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if r.TopK < 0 {
		return fmt.Errorf("top_k must not be negative")
	}
	if r.TopK == 0 {
		r.TopK = defaultTopK
	}
	if r.TopK > MaxTopK {
		r.TopK = MaxTopK
	}
	return nil
}

package indexer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hyperjump/resumechat/internal/models"
	"github.com/hyperjump/resumechat/pkg/utils"
)

// WriteMetadata persists chunks as an indented JSON array, replacing path atomically.
// Entry i describes index vector i.
func WriteMetadata(path string, chunks []models.Chunk) error {
	if chunks == nil {
		chunks = []models.Chunk{}
	}
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return utils.WriteFileAtomic(path, func(f *os.File) error {
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
		return nil
	})
}

// ReadMetadata loads the chunk list written by WriteMetadata. A missing file
// returns an error wrapping fs.ErrNotExist.
func ReadMetadata(path string) ([]models.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var chunks []models.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	if chunks == nil {
		chunks = []models.Chunk{}
	}
	return chunks, nil
}

package vector

import "fmt"

// IndexType names an index implementation.
type IndexType string

const (
	// IndexTypeFlat is the in-process brute-force index.
	IndexTypeFlat IndexType = "flat"
	// IndexTypeFAISS uses FAISS IndexFlatIP. Requires building with -tags=faiss
	// and the faiss_c library.
	IndexTypeFAISS IndexType = "faiss"
)

// NewIndex creates an empty index of the given type ("flat" when empty).
func NewIndex(indexType string, dimensions int) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, "":
		idx, err := NewFlatIndex(dimensions)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case IndexTypeFAISS:
		idx, err := NewFAISSIndex(dimensions)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: flat, faiss)", indexType)
	}
}

// Load reads a persisted index of the given type from path.
func Load(indexType, path string) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, "":
		idx, err := LoadFlatIndex(path)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case IndexTypeFAISS:
		idx, err := LoadFAISSIndex(path)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: flat, faiss)", indexType)
	}
}

// IsFAISSAvailable reports whether FAISS support is compiled in.
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(1)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}

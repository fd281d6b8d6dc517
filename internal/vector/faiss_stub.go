//go:build !faiss || !cgo
// +build !faiss !cgo

package vector

import (
	"context"
	"errors"
)

var errFAISSUnavailable = errors.New("FAISS not available: build with -tags=faiss and install the faiss_c library")

// FAISSIndex is a stub used when FAISS support is not compiled in.
type FAISSIndex struct{}

// NewFAISSIndex returns an error because FAISS is not available.
func NewFAISSIndex(dimensions int) (*FAISSIndex, error) {
	return nil, errFAISSUnavailable
}

// LoadFAISSIndex returns an error because FAISS is not available.
func LoadFAISSIndex(path string) (*FAISSIndex, error) {
	return nil, errFAISSUnavailable
}

func (f *FAISSIndex) Type() string    { return string(IndexTypeFAISS) }
func (f *FAISSIndex) Dimensions() int { return 0 }
func (f *FAISSIndex) Len() int        { return 0 }
func (f *FAISSIndex) Close() error    { return nil }
func (f *FAISSIndex) Save(string) error {
	return errFAISSUnavailable
}

func (f *FAISSIndex) Add(context.Context, [][]float32) error {
	return errFAISSUnavailable
}

func (f *FAISSIndex) Search(context.Context, []float32, int) ([]Hit, error) {
	return nil, errFAISSUnavailable
}

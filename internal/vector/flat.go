package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	"github.com/hyperjump/resumechat/pkg/utils"
)

// flatMagic and flatVersion head every persisted flat index.
const (
	flatMagic   = "RCVI"
	flatVersion = uint32(1)
)

// FlatIndex is an exact brute-force inner-product index held in memory.
// Vectors are stored row-major in one slice.
type FlatIndex struct {
	dimensions int
	data       []float32
	mu         sync.RWMutex
}

// NewFlatIndex creates an empty flat index with the given dimension.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &FlatIndex{dimensions: dimensions}, nil
}

// Type returns the index type identifier.
func (m *FlatIndex) Type() string {
	return string(IndexTypeFlat)
}

// Dimensions returns the vector dimension.
func (m *FlatIndex) Dimensions() int {
	return m.dimensions
}

// Add appends vectors. Nothing is added if any vector has the wrong dimension.
func (m *FlatIndex) Add(ctx context.Context, vectors [][]float32) error {
	for _, v := range vectors {
		if err := checkDim(len(v), m.dimensions); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		m.data = append(m.data, v...)
	}
	return nil
}

// Search returns the top-k vectors by inner product.
func (m *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if err := checkDim(len(query), m.dimensions); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.data) == 0 {
		return nil, nil
	}
	return topK(scoreAll(query, m.data, m.dimensions), k), nil
}

// Len returns the number of vectors in the index.
func (m *FlatIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data) / m.dimensions
}

// Save writes the index to path. Format (little-endian): magic "RCVI", version,
// dimension, count (uint32 each), then count*dimension float32 values.
func (m *FlatIndex) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return utils.WriteFileAtomic(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if _, err := w.WriteString(flatMagic); err != nil {
			return fmt.Errorf("write magic: %w", err)
		}
		header := []uint32{flatVersion, uint32(m.dimensions), uint32(len(m.data) / m.dimensions)}
		if err := binary.Write(w, binary.LittleEndian, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		if _, err := w.Write(float32SliceToBytes(m.data)); err != nil {
			return fmt.Errorf("write vectors: %w", err)
		}
		return w.Flush()
	})
}

// LoadFlatIndex reads an index written by Save. A missing file returns an error
// wrapping fs.ErrNotExist.
func LoadFlatIndex(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	magic := make([]byte, len(flatMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != flatMagic {
		return nil, fmt.Errorf("%w: bad magic in %s", ErrCorruptIndex, path)
	}
	var header [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorruptIndex, err)
	}
	version, dim, n := header[0], header[1], header[2]
	if version != flatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, version)
	}
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrCorruptIndex)
	}
	if info, statErr := f.Stat(); statErr == nil {
		want := int64(len(flatMagic)) + 12 + int64(n)*int64(dim)*4
		if info.Size() != want {
			return nil, fmt.Errorf("%w: size %d, header implies %d", ErrCorruptIndex, info.Size(), want)
		}
	}
	buf := make([]byte, int(n)*int(dim)*4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: read vectors: %v", ErrCorruptIndex, err)
	}
	return &FlatIndex{dimensions: int(dim), data: bytesToFloat32Slice(buf)}, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Close is a no-op for FlatIndex.
func (m *FlatIndex) Close() error {
	return nil
}

// Package source provides the buffer abstraction and compression gate that
// the parser reads every other component through: a length, a whole-slice
// view, and O(1) sub-slicing over a byte range, regardless of whether the
// underlying bytes came straight from disk, were decompressed into memory,
// or are backed by a memory-mapped temp file.
package source

import (
	"fmt"

	"github.com/blendgraph/blendgraph/internal/utils"
)

// Source is the read surface every parser component operates on. All
// implementations must make Slice O(1) and allocation-free.
type Source interface {
	// Len returns the total number of bytes available.
	Len() int64

	// Bytes returns the entire backing buffer. Callers must not modify the
	// returned slice.
	Bytes() []byte

	// Slice returns the byte range [start, end). It panics if the range is
	// out of bounds; callers are expected to validate against Len first.
	Slice(start, end int64) []byte

	// Close releases any resources (temp file, memory map) held by the
	// source. Sources backed by a caller-owned buffer are a no-op.
	Close() error
}

// memorySource is a Source backed by an in-process byte slice, used both
// for raw uncompressed files and in-memory-decompressed payloads.
type memorySource struct {
	data []byte
}

// NewMemorySource wraps an owned byte slice as a Source.
func NewMemorySource(data []byte) Source {
	return &memorySource{data: data}
}

func (m *memorySource) Len() int64 { return int64(len(m.data)) }

func (m *memorySource) Bytes() []byte { return m.data }

func (m *memorySource) Slice(start, end int64) []byte {
	return m.data[start:end]
}

func (m *memorySource) Close() error { return nil }

// boundsError builds a typed parser error for an out-of-range slice or
// length request, used by gate and scanner code that validates offsets
// before calling into a Source.
func boundsError(op string, start, end, length int64) error {
	return utils.NewError(utils.DomainParser, utils.KindInvalidRange,
		fmt.Sprintf("requested range [%d, %d) is outside the source (length %d)", start, end, length)).
		WithOperation(op)
}

// CheckedSlice validates [start, end) against the source length before
// calling Slice, returning a typed error instead of panicking. Block
// scanning and field access always go through this rather than Slice
// directly, since both read offsets computed from untrusted file bytes.
func CheckedSlice(s Source, start, end int64, op string) ([]byte, error) {
	length := s.Len()
	if start < 0 || end < start || end > length {
		return nil, boundsError(op, start, end, length)
	}
	return s.Slice(start, end), nil
}

package source

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// mmapSource is a Source backed by a memory-mapped temp file, used for
// decompressed payloads too large for the in-memory threshold when the
// caller opts into mmap over a plain temp-file read.
type mmapSource struct {
	file *os.File
	m    mmap.MMap
}

// NewMmapSource memory-maps an already-populated file read-only and wraps
// it as a Source. The file is kept open for the lifetime of the source and
// closed alongside the mapping in Close.
func NewMmapSource(f *os.File) (Source, error) {
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &mmapSource{file: f, m: m}, nil
}

func (s *mmapSource) Len() int64 { return int64(len(s.m)) }

func (s *mmapSource) Bytes() []byte { return s.m }

func (s *mmapSource) Slice(start, end int64) []byte {
	return s.m[start:end]
}

func (s *mmapSource) Close() error {
	unmapErr := s.m.Unmap()
	closeErr := s.file.Close()
	if unmapErr != nil {
		return unmapErr
	}
	return closeErr
}

package source

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/blendgraph/blendgraph/internal/utils"
)

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	gzipMagic = []byte{0x1F, 0x8B}
)

// Compression identifies the codec detected at the head of a file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionGzip
)

// Policy controls how the compression gate materializes a decompressed
// payload: entirely in memory when it fits, otherwise to a temp file that
// is either read back whole or memory-mapped.
type Policy struct {
	// MaxInMemoryBytes is the largest decompressed size the gate will hold
	// as an owned byte slice. Above this it spills to a temp file.
	MaxInMemoryBytes int64

	// TempDir overrides the directory used for spilled temp files. Empty
	// uses os.TempDir().
	TempDir string

	// PreferMmapTemp memory-maps the spilled temp file instead of reading
	// it back into memory.
	PreferMmapTemp bool
}

// DefaultPolicy returns the gate's default thresholds: 256MB in-memory
// ceiling, system temp dir, and temp-file spill mapped via mmap.
func DefaultPolicy() Policy {
	return Policy{
		MaxInMemoryBytes: 256 * 1024 * 1024,
		TempDir:          "",
		PreferMmapTemp:   true,
	}
}

// Sniff inspects the leading bytes of data and reports the compression
// codec in use, if any.
func Sniff(data []byte) Compression {
	if bytes.HasPrefix(data, zstdMagic) {
		return CompressionZstd
	}
	if bytes.HasPrefix(data, gzipMagic) {
		return CompressionGzip
	}
	return CompressionNone
}

// Open applies the compression gate to raw file bytes, returning a Source
// ready for header decoding. Uncompressed input is wrapped directly; zstd
// and gzip payloads are decompressed according to policy.
func Open(raw []byte, policy Policy) (Source, error) {
	switch Sniff(raw) {
	case CompressionNone:
		return NewMemorySource(raw), nil
	case CompressionZstd:
		return decompressZstd(raw, policy)
	case CompressionGzip:
		return decompressGzip(raw, policy)
	default:
		return nil, utils.NewError(utils.DomainParser, utils.KindUnsupportedCompress,
			"unrecognized compression magic")
	}
}

func decompressZstd(raw []byte, policy Policy) (Source, error) {
	dec, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, utils.NewError(utils.DomainParser, utils.KindDecompressionFailed,
			"failed to initialize zstd decoder").WithCause(err)
	}
	defer dec.Close()
	return materialize(dec, policy)
}

func decompressGzip(raw []byte, policy Policy) (Source, error) {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, utils.NewError(utils.DomainParser, utils.KindDecompressionFailed,
			"failed to initialize gzip reader").WithCause(err)
	}
	defer gz.Close()
	return materialize(gz, policy)
}

// materialize drains r according to policy: fully in memory when the
// decompressed size stays under MaxInMemoryBytes, otherwise spilled to a
// temp file and either read back or memory-mapped.
func materialize(r io.Reader, policy Policy) (Source, error) {
	limited := io.LimitReader(r, policy.MaxInMemoryBytes+1)
	buf, err := io.ReadAll(limited)
	if err != nil {
		return nil, utils.NewError(utils.DomainParser, utils.KindDecompressionFailed,
			"decompression stream read failed").WithCause(err)
	}

	if int64(len(buf)) <= policy.MaxInMemoryBytes {
		return NewMemorySource(buf), nil
	}

	return spillToTemp(buf, r, policy)
}

// spillToTemp writes the already-read prefix plus the remainder of r to a
// temp file, since the in-memory threshold was exceeded mid-read.
func spillToTemp(prefix []byte, rest io.Reader, policy Policy) (Source, error) {
	tmp, err := os.CreateTemp(policy.TempDir, "blendgraph-*.tmp")
	if err != nil {
		return nil, utils.NewError(utils.DomainParser, utils.KindDecompressionFailed,
			"failed to create temp file for decompression spill").WithCause(err)
	}

	if _, err := tmp.Write(prefix); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, utils.NewError(utils.DomainParser, utils.KindDecompressionFailed,
			"failed to write decompression spill prefix").WithCause(err)
	}
	if _, err := io.Copy(tmp, rest); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, utils.NewError(utils.DomainParser, utils.KindDecompressionFailed,
			"failed to write decompression spill remainder").WithCause(err)
	}

	removeOnClose := tmp.Name()

	if policy.PreferMmapTemp {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			_ = tmp.Close()
			_ = os.Remove(removeOnClose)
			return nil, utils.NewError(utils.DomainParser, utils.KindDecompressionFailed,
				"failed to rewind decompression spill file").WithCause(err)
		}
		src, err := NewMmapSource(tmp)
		if err != nil {
			_ = os.Remove(removeOnClose)
			return nil, utils.NewError(utils.DomainParser, utils.KindDecompressionFailed,
				"failed to memory-map decompression spill file").WithCause(err)
		}
		return &tempFileSource{Source: src, path: removeOnClose}, nil
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		_ = tmp.Close()
		_ = os.Remove(removeOnClose)
		return nil, utils.NewError(utils.DomainParser, utils.KindDecompressionFailed,
			"failed to rewind decompression spill file").WithCause(err)
	}
	data, err := io.ReadAll(tmp)
	_ = tmp.Close()
	_ = os.Remove(removeOnClose)
	if err != nil {
		return nil, utils.NewError(utils.DomainParser, utils.KindDecompressionFailed,
			"failed to read back decompression spill file").WithCause(err)
	}
	return NewMemorySource(data), nil
}

// tempFileSource wraps an mmap-backed Source whose underlying file must be
// deleted (not just closed) once the caller is done with it.
type tempFileSource struct {
	Source
	path string
}

func (s *tempFileSource) Close() error {
	err := s.Source.Close()
	_ = os.Remove(s.path)
	return err
}

// Package blend is the public entry point to blendgraph: open a .blend
// file, trace its dependency graph, filter its block set, and rewrite a
// name or library path in place.
package blend

import (
	"context"
	"encoding/binary"
	"os"

	"github.com/blendgraph/blendgraph/internal/core"
	"github.com/blendgraph/blendgraph/internal/edit"
	"github.com/blendgraph/blendgraph/internal/expand"
	"github.com/blendgraph/blendgraph/internal/filter"
	"github.com/blendgraph/blendgraph/internal/source"
	"github.com/blendgraph/blendgraph/internal/trace"
	"github.com/blendgraph/blendgraph/internal/utils"
)

// File is a parsed .blend file: its decoded header, block table, DNA
// schema, and the indexes the tracer and filter engine read through.
// File satisfies expand.ParsedFile, so the registry, tracer, and filter
// engine all operate on it directly.
type File struct {
	path   string
	src    source.Source
	header core.Header
	blocks []core.Block
	dna    *core.DNA
	index  *core.Index
	reg    *expand.Registry
}

// Options controls how Open materializes file bytes before parsing.
type Options struct {
	// CompressionPolicy governs the compression gate's in-memory/temp-file
	// threshold when the source file is zstd- or gzip-compressed. The zero
	// value uses source.DefaultPolicy().
	CompressionPolicy source.Policy
	// Registry overrides the expander registry used for tracing and
	// filtering. The zero value uses expand.DefaultRegistry().
	Registry *expand.Registry
}

// Open reads path, applies the compression gate, and decodes the header,
// block table, and DNA schema.
func Open(path string, opts Options) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.WrapError("blend.Open: read file", err)
	}

	policy := opts.CompressionPolicy
	if policy == (source.Policy{}) {
		policy = source.DefaultPolicy()
	}
	src, err := source.Open(raw, policy)
	if err != nil {
		return nil, err
	}

	hdr, err := core.DecodeHeader(src)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	blocks, err := core.ScanBlocks(src, hdr)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	dna, err := core.DecodeDNA(src, hdr, blocks)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	reg := opts.Registry
	if reg == nil {
		reg = expand.DefaultRegistry()
	}

	utils.Log.WithFields(map[string]interface{}{
		"path":   path,
		"blocks": len(blocks),
	}).Debug("blend: file opened")

	return &File{
		path:   path,
		src:    src,
		header: hdr,
		blocks: blocks,
		dna:    dna,
		index:  core.BuildIndex(blocks),
		reg:    reg,
	}, nil
}

// Close releases the underlying source (temp file or memory map, if any).
func (f *File) Close() error {
	return f.src.Close()
}

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.path }

// Header returns the decoded file header.
func (f *File) Header() core.Header { return f.header }

// --- expand.ParsedFile ---

// DNA returns the decoded SDNA schema.
func (f *File) DNA() *core.DNA { return f.dna }

// Block returns the block at idx.
func (f *File) Block(idx int) core.Block { return f.blocks[idx] }

// BlockCount returns the number of scanned blocks, including the
// terminating ENDB block.
func (f *File) BlockCount() int { return len(f.blocks) }

// Payload returns the raw payload bytes of the block at idx.
func (f *File) Payload(idx int) ([]byte, error) {
	if idx < 0 || idx >= len(f.blocks) {
		return nil, utils.NewError(utils.DomainParser, utils.KindInvalidBlockIndex,
			"block index out of range").WithOperation("payload").WithBlock(idx)
	}
	return f.blocks[idx].Payload(f.src)
}

// PointerSize returns 4 or 8, per the decoded header.
func (f *File) PointerSize() int { return f.header.PointerSize }

// ByteOrder returns the file's byte order.
func (f *File) ByteOrder() binary.ByteOrder { return f.header.ByteOrder }

// FindByAddress resolves an original in-memory address to a block index.
func (f *File) FindByAddress(addr uint64) (int, bool) { return f.index.FindByAddress(addr) }

// BlocksByType returns the indices of every block with the given 4-byte
// code, e.g. "OB", "ME", "DATA".
func (f *File) BlocksByType(code string) []int { return f.index.BlocksByType(code) }

// FieldView builds a typed field view over the block's payload bytes.
func (f *File) FieldView(idx int) (*core.FieldView, error) {
	payload, err := f.Payload(idx)
	if err != nil {
		return nil, err
	}
	return core.NewFieldView(payload, f.dna, f.header.PointerSize, f.header.ByteOrder), nil
}

// Trace computes the transitive closure of dependency edges reachable
// from root, per the parallel BFS tracer in internal/trace.
func (f *File) Trace(ctx context.Context, root int, opts trace.Options) (trace.Result, error) {
	return trace.Trace(ctx, f, f.reg, root, opts)
}

// ExternalRefs collects every external file reference (Image source
// paths, Library linked-file paths) the registered expanders report for
// the block at idx.
func (f *File) ExternalRefs(idx int) []expand.ExternalRef {
	return f.reg.ExternalRefs(f, idx)
}

// Filter parses rules with filter.ParseSpec and evaluates them against
// the file's block set, returning the surviving block indices in
// ascending order.
func (f *File) Filter(ctx context.Context, rules []string, dataPolicy filter.DataPolicy) ([]int, error) {
	parsed, err := filter.ParseSpec(rules)
	if err != nil {
		return nil, err
	}
	return filter.Evaluate(ctx, f, f.reg, parsed, dataPolicy)
}

// Rename rewrites the ID.name field of the block at blockIdx in place,
// preserving the original two-character type-code prefix. It operates
// directly on the file at f.Path() rather than through the in-memory
// source, since an edit is a narrow on-disk rewrite, not a re-parse.
func (f *File) Rename(blockIdx int, newName string, opts edit.Options) error {
	return edit.Rename(f.path, blockIdx, newName, opts)
}

// SetLibraryPath rewrites the Library.name field of the block at
// blockIdx in place, normalizing a bare filename to a blendfile-relative
// reference.
func (f *File) SetLibraryPath(blockIdx int, newPath string, opts edit.Options) error {
	return edit.SetLibraryPath(f.path, blockIdx, newPath, opts)
}

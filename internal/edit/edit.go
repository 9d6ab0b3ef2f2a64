// Package edit implements the in-place .blend file editor: narrow,
// byte-range-preserving writes against a single field of a single block.
package edit

import (
	"os"

	"github.com/blendgraph/blendgraph/internal/core"
	"github.com/blendgraph/blendgraph/internal/source"
	"github.com/blendgraph/blendgraph/internal/utils"
)

// Options configures an edit operation.
type Options struct {
	// SkipNoopCheck disables the rejection of a write whose new value
	// equals the field's current value.
	SkipNoopCheck bool
}

func editErr(kind utils.Kind, msg string) *utils.Error {
	return utils.NewError(utils.DomainEditor, kind, msg)
}

// openedFile bundles the decoded structures an edit needs to locate a
// field, kept alongside the raw bytes so the caller can re-slice the
// payload without re-parsing.
type openedFile struct {
	hdr    core.Header
	blocks []core.Block
	dna    *core.DNA
	src    source.Source
}

func openForEdit(path string) (openedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return openedFile{}, utils.WrapError("open_for_edit: read file", err)
	}
	src := source.NewMemorySource(raw)

	hdr, err := core.DecodeHeader(src)
	if err != nil {
		return openedFile{}, err
	}
	blocks, err := core.ScanBlocks(src, hdr)
	if err != nil {
		return openedFile{}, err
	}
	dna, err := core.DecodeDNA(src, hdr, blocks)
	if err != nil {
		return openedFile{}, err
	}
	return openedFile{hdr: hdr, blocks: blocks, dna: dna, src: src}, nil
}

// locateField resolves structName.fieldName within block blockIdx,
// returning the block, its payload bytes, and the resolved field
// descriptor.
func (f openedFile) locateField(blockIdx int, structName, fieldName string) (core.Block, []byte, core.DNAField, error) {
	if blockIdx < 0 || blockIdx >= len(f.blocks) {
		return core.Block{}, nil, core.DNAField{},
			editErr(utils.KindBlockNotFound, "block index out of range").WithOperation("locate_field").WithBlock(blockIdx)
	}
	block := f.blocks[blockIdx]

	payload, err := block.Payload(f.src)
	if err != nil {
		return core.Block{}, nil, core.DNAField{}, err
	}

	view := core.NewFieldView(payload, f.dna, f.hdr.PointerSize, f.hdr.ByteOrder)
	field, ok := view.LookupField(structName, fieldName)
	if !ok {
		return core.Block{}, nil, core.DNAField{},
			editErr(utils.KindNoIDStructure, "field \""+fieldName+"\" not present on struct \""+structName+"\"").
				WithOperation("locate_field").WithBlock(blockIdx)
	}

	return block, payload, field, nil
}

// writeField builds a zero-filled buffer the size of the field, copies
// newBytes into it (truncated to the field size minus one byte to
// preserve a terminating NUL), then writes only that range to the file at
// its absolute offset, leaving every other byte untouched.
func writeField(path string, block core.Block, field core.DNAField, newBytes []byte) error {
	region := make([]byte, field.Size)
	n := len(newBytes)
	if max := int(field.Size) - 1; n > max {
		n = max
	}
	if n > 0 {
		copy(region, newBytes[:n])
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return utils.WrapError("write_field: open file", err)
	}
	defer f.Close()

	absOffset := block.PayloadOffset + int64(field.Offset)
	if _, err := f.WriteAt(region, absOffset); err != nil {
		return utils.WrapError("write_field: write range", err)
	}
	return nil
}

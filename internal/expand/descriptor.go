package expand

import (
	"github.com/blendgraph/blendgraph/internal/core"
	"github.com/blendgraph/blendgraph/internal/utils"
)

// ArrayFieldPair names a DNA count field and the pointer field holding
// the address of an array of pointer-sized slots, e.g.
// ("totcol", "mat") on Object/Mesh.
type ArrayFieldPair struct {
	CountField string
	ArrayField string
}

// SimpleDescriptor lists the pointer fields and count/array field pairs
// an expander should resolve for a given struct, covering the common
// case of "read these pointers, resolve each to a block index".
type SimpleDescriptor struct {
	StructName    string
	PointerFields []string
	ArrayFields   []ArrayFieldPair
}

// Expand implements the Simple shape described in §4.7: each pointer
// field is read and resolved to a block index; each array field pair
// reads the count, resolves the array block, then walks count many
// pointer-sized slots inside it.
func (d SimpleDescriptor) Expand(file ParsedFile, blockIdx int) ([]int, error) {
	view, err := file.FieldView(blockIdx)
	if err != nil {
		return nil, err
	}

	var out []int
	for _, pf := range d.PointerFields {
		if !view.TryField(d.StructName, pf) {
			continue
		}
		addr, err := view.ReadFieldPointer(d.StructName, pf)
		if err != nil {
			continue
		}
		if idx, ok := file.FindByAddress(addr); ok {
			out = append(out, idx)
		}
	}

	for _, af := range d.ArrayFields {
		out = append(out, d.expandArray(file, view, af)...)
	}

	return out, nil
}

func (d SimpleDescriptor) expandArray(file ParsedFile, view *core.FieldView, af ArrayFieldPair) []int {
	if !view.TryField(d.StructName, af.CountField) || !view.TryField(d.StructName, af.ArrayField) {
		return nil
	}
	count, err := view.ReadFieldU32(d.StructName, af.CountField)
	if err != nil || count == 0 {
		return nil
	}
	if count > MaxArrayCount {
		return nil
	}

	arrayAddr, err := view.ReadFieldPointer(d.StructName, af.ArrayField)
	if err != nil || arrayAddr == 0 {
		return nil
	}
	arrayBlockIdx, ok := file.FindByAddress(arrayAddr)
	if !ok {
		return nil
	}

	arrayView, err := file.FieldView(arrayBlockIdx)
	if err != nil {
		return nil
	}

	pointerSize := file.PointerSize()
	var out []int
	for i := uint32(0); i < count; i++ {
		offset := int(i) * pointerSize
		addr, err := arrayView.ReadPointer(offset)
		if err != nil {
			break
		}
		if idx, ok := file.FindByAddress(addr); ok {
			out = append(out, idx)
		}
	}
	return out
}

// MaxArrayCount bounds how many pointer-sized slots an array expansion
// will walk, protecting against a corrupted count field that survived
// the DNA-level sanity cap but is still implausible for a single block's
// payload. It matches the DNA-decode-time sanity cap in utils.MaxArrayCount.
const MaxArrayCount = utils.MaxArrayCount

// CustomExpander wraps an arbitrary traversal function, used for linked
// lists and variant-discriminated fields that don't fit the Simple shape.
type CustomExpander struct {
	Fn func(file ParsedFile, blockIdx int) ([]int, error)
}

func (c CustomExpander) Expand(file ParsedFile, blockIdx int) ([]int, error) {
	return c.Fn(file, blockIdx)
}

// HybridExpander applies a Simple descriptor first, then appends edges
// from a custom tail.
type HybridExpander struct {
	Simple SimpleDescriptor
	Tail   func(file ParsedFile, blockIdx int) ([]int, error)
}

func (h HybridExpander) Expand(file ParsedFile, blockIdx int) ([]int, error) {
	edges, err := h.Simple.Expand(file, blockIdx)
	if err != nil {
		return nil, err
	}
	tailEdges, err := h.Tail(file, blockIdx)
	if err != nil {
		return edges, nil
	}
	return append(edges, tailEdges...), nil
}

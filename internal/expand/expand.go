// Package expand provides the per-block-type dependency expanders the
// tracer drives: given a block, produce the block indices it references.
package expand

import (
	"encoding/binary"

	"github.com/blendgraph/blendgraph/internal/core"
	"github.com/blendgraph/blendgraph/internal/utils"
)

// ParsedFile is the minimal read-only surface an expander needs: the DNA
// schema, the block table, and the indexes to resolve pointers and codes
// into block indices. A concrete implementation lives in the root blend
// package; expand only depends on this interface to stay decoupled from
// source materialization.
type ParsedFile interface {
	DNA() *core.DNA
	Block(idx int) core.Block
	BlockCount() int
	Payload(idx int) ([]byte, error)
	PointerSize() int
	ByteOrder() binary.ByteOrder
	FindByAddress(addr uint64) (int, bool)
	FieldView(blockIdx int) (*core.FieldView, error)
}

// Expander produces the dependency edges for one block.
type Expander interface {
	Expand(file ParsedFile, blockIdx int) ([]int, error)
}

// ExternalRef is a reference to a file outside the .blend file itself
// (an Image's source path, a Library's linked-file path). These never
// become tracer edges; they're surfaced separately for callers that want
// to enumerate a file's external dependencies.
type ExternalRef struct {
	BlockIdx int
	Path     string
	Kind     string
}

// ExternalRefExpander is an optional capability an Expander may also
// implement when its block type carries external file references
// instead of (or in addition to) internal block edges.
type ExternalRefExpander interface {
	ExpandExternal(file ParsedFile, blockIdx int) ([]ExternalRef, error)
}

// ExpanderFunc adapts a plain function to the Expander interface.
type ExpanderFunc func(file ParsedFile, blockIdx int) ([]int, error)

func (f ExpanderFunc) Expand(file ParsedFile, blockIdx int) ([]int, error) {
	return f(file, blockIdx)
}

// Registry maps a 4-byte block code to its expander(s). A single code may
// have more than one candidate (the "DATA" code is polymorphic); every
// candidate is run and their edges are unioned. An expander signals "not
// applicable" by
// returning a nil slice and a nil error rather than an error, keeping the
// registry total as required by §4.7.
type Registry struct {
	handlers map[string][]Expander
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string][]Expander)}
}

// Register adds an expander for a block code.
func (r *Registry) Register(code string, e Expander) {
	r.handlers[code] = append(r.handlers[code], e)
}

// Expand runs every registered expander for the block's code and unions
// their results. An error from an individual expander is logged at Debug
// with the block index and code, and that expander contributes no edges,
// per the tracer's failure semantics.
func (r *Registry) Expand(file ParsedFile, blockIdx int) []int {
	code := file.Block(blockIdx).Header.CodeString()
	handlers := r.handlers[code]
	if len(handlers) == 0 {
		return nil
	}

	seen := make(map[int]struct{})
	var out []int
	for _, h := range handlers {
		edges, err := h.Expand(file, blockIdx)
		if err != nil {
			utils.Log.WithFields(map[string]interface{}{
				"block": blockIdx,
				"code":  code,
			}).WithError(err).Debug("expander failed, contributing no edges")
			continue
		}
		for _, e := range edges {
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// ExternalRefs collects external file references from every registered
// expander for the block's code that implements ExternalRefExpander.
func (r *Registry) ExternalRefs(file ParsedFile, blockIdx int) []ExternalRef {
	code := file.Block(blockIdx).Header.CodeString()
	var out []ExternalRef
	for _, h := range r.handlers[code] {
		extExpander, ok := h.(ExternalRefExpander)
		if !ok {
			continue
		}
		refs, err := extExpander.ExpandExternal(file, blockIdx)
		if err != nil {
			continue
		}
		out = append(out, refs...)
	}
	return out
}

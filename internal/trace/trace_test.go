package trace

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendgraph/blendgraph/internal/core"
	"github.com/blendgraph/blendgraph/internal/expand"
	shared "github.com/blendgraph/blendgraph/internal/testing"
)

type fakeFile struct {
	dna       *core.DNA
	blocks    []core.Block
	payloads  [][]byte
	addrIndex map[uint64]int
}

func newFakeFile(dna *core.DNA) *fakeFile {
	return &fakeFile{dna: dna, addrIndex: make(map[uint64]int)}
}

func blockCode(code string) [4]byte {
	var out [4]byte
	copy(out[:], code)
	return out
}

func (f *fakeFile) addBlock(code string, addr uint64, payload []byte) int {
	idx := len(f.blocks)
	f.blocks = append(f.blocks, core.Block{Header: core.BlockHeader{Code: blockCode(code), OldAddress: addr, Size: uint64(len(payload))}})
	f.payloads = append(f.payloads, payload)
	if addr != 0 {
		f.addrIndex[addr] = idx
	}
	return idx
}

func (f *fakeFile) DNA() *core.DNA                     { return f.dna }
func (f *fakeFile) Block(idx int) core.Block           { return f.blocks[idx] }
func (f *fakeFile) BlockCount() int                    { return len(f.blocks) }
func (f *fakeFile) Payload(idx int) ([]byte, error)    { return f.payloads[idx], nil }
func (f *fakeFile) PointerSize() int                   { return 8 }
func (f *fakeFile) ByteOrder() binary.ByteOrder        { return binary.LittleEndian }
func (f *fakeFile) FindByAddress(addr uint64) (int, bool) {
	idx, ok := f.addrIndex[addr]
	return idx, ok
}
func (f *fakeFile) FieldView(blockIdx int) (*core.FieldView, error) {
	return core.NewFieldView(f.payloads[blockIdx], f.dna, 8, binary.LittleEndian), nil
}

func putPtr(buf []byte, offset int, addr uint64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], addr)
}

// buildChain wires a linear chain root -> a -> b using a "Link" struct
// with a single "next" pointer field, registered under code "LK".
func buildChain(t *testing.T) (*fakeFile, *expand.Registry, int) {
	t.Helper()
	dna := shared.BuildDNA(map[string][]shared.FieldSpec{
		"Link": {{Name: "next", IsPointer: true, Size: 8, Offset: 0}},
	})
	f := newFakeFile(dna)

	bPayload := make([]byte, 8)
	bIdx := f.addBlock("LK", 0x3, bPayload)

	aPayload := make([]byte, 8)
	putPtr(aPayload, 0, 0x3)
	f.addBlock("LK", 0x2, aPayload)

	rootPayload := make([]byte, 8)
	putPtr(rootPayload, 0, 0x2)
	rootIdx := f.addBlock("LK", 0x1, rootPayload)

	_ = bIdx

	reg := expand.NewRegistry()
	reg.Register("LK", expand.SimpleDescriptor{StructName: "Link", PointerFields: []string{"next"}})
	return f, reg, rootIdx
}

func TestTrace_LinearChain(t *testing.T) {
	f, reg, rootIdx := buildChain(t)

	result, err := Trace(context.Background(), f, reg, rootIdx, Options{})
	require.NoError(t, err)
	assert.Len(t, result.Order, 2)
	assert.NotContains(t, result.Order, rootIdx)
}

func TestTrace_MaxDepthStopsExpansion(t *testing.T) {
	f, reg, rootIdx := buildChain(t)

	result, err := Trace(context.Background(), f, reg, rootIdx, Options{MaxDepth: 1})
	require.NoError(t, err)
	assert.Len(t, result.Order, 1)
}

func TestTrace_BuildTreeRecordsChildren(t *testing.T) {
	f, reg, rootIdx := buildChain(t)

	result, err := Trace(context.Background(), f, reg, rootIdx, Options{BuildTree: true})
	require.NoError(t, err)
	require.NotNil(t, result.Tree)
	assert.Equal(t, rootIdx, result.Tree.BlockIdx)
	require.Len(t, result.Tree.Children, 1)
	require.Len(t, result.Tree.Children[0].Children, 1)
}

func TestTrace_RootOutOfRange(t *testing.T) {
	f, reg, _ := buildChain(t)

	_, err := Trace(context.Background(), f, reg, 99, Options{})
	require.Error(t, err)
}

func TestTrace_Idempotent(t *testing.T) {
	f, reg, rootIdx := buildChain(t)

	r1, err := Trace(context.Background(), f, reg, rootIdx, Options{})
	require.NoError(t, err)
	r2, err := Trace(context.Background(), f, reg, rootIdx, Options{})
	require.NoError(t, err)
	assert.Equal(t, r1.Order, r2.Order)
}

func TestTrace_CancelledContext(t *testing.T) {
	f, reg, rootIdx := buildChain(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Trace(ctx, f, reg, rootIdx, Options{})
	require.Error(t, err)
}

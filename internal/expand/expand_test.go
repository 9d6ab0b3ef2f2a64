package expand

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendgraph/blendgraph/internal/core"
	shared "github.com/blendgraph/blendgraph/internal/testing"
)

// fakeFile is a minimal ParsedFile test double: blocks are addressed by
// their old_address, and payloads are plain byte slices laid out by hand
// to match the fields exercised in each test.
type fakeFile struct {
	dna       *core.DNA
	blocks    []core.Block
	payloads  [][]byte
	addrIndex map[uint64]int
	ptrSize   int
	order     binary.ByteOrder
}

func newFakeFile(dna *core.DNA) *fakeFile {
	return &fakeFile{
		dna:       dna,
		addrIndex: make(map[uint64]int),
		ptrSize:   8,
		order:     binary.LittleEndian,
	}
}

func blockCode(code string) [4]byte {
	var out [4]byte
	copy(out[:], code)
	return out
}

// addBlock registers a block with the given code, old address, and
// payload bytes, returning its index.
func (f *fakeFile) addBlock(code string, addr uint64, payload []byte) int {
	idx := len(f.blocks)
	f.blocks = append(f.blocks, core.Block{
		Header: core.BlockHeader{Code: blockCode(code), OldAddress: addr, Size: uint64(len(payload))},
	})
	f.payloads = append(f.payloads, payload)
	if addr != 0 {
		f.addrIndex[addr] = idx
	}
	return idx
}

func (f *fakeFile) DNA() *core.DNA                  { return f.dna }
func (f *fakeFile) Block(idx int) core.Block        { return f.blocks[idx] }
func (f *fakeFile) BlockCount() int                 { return len(f.blocks) }
func (f *fakeFile) Payload(idx int) ([]byte, error) { return f.payloads[idx], nil }
func (f *fakeFile) PointerSize() int                { return f.ptrSize }
func (f *fakeFile) ByteOrder() binary.ByteOrder     { return f.order }

func (f *fakeFile) FindByAddress(addr uint64) (int, bool) {
	idx, ok := f.addrIndex[addr]
	return idx, ok
}

func (f *fakeFile) FieldView(blockIdx int) (*core.FieldView, error) {
	return core.NewFieldView(f.payloads[blockIdx], f.dna, f.ptrSize, f.order), nil
}

func putPtr(buf []byte, offset int, addr uint64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], addr)
}

func TestSimpleDescriptor_PointerAndArrayFields(t *testing.T) {
	dna := shared.BuildDNA(map[string][]shared.FieldSpec{
		"Object": {
			{Name: "data", IsPointer: true, Size: 8, Offset: 0},
			{Name: "totcol", Size: 4, Offset: 8},
			{Name: "mat", IsPointer: true, Size: 8, Offset: 12},
		},
	})
	f := newFakeFile(dna)

	meshIdx := f.addBlock("ME", 0x1000, []byte{})

	matArray := make([]byte, 16)
	putPtr(matArray, 0, 0x2000)
	putPtr(matArray, 8, 0x3000)
	matArrayIdx := f.addBlock("DATA", 0x4000, matArray)
	mat1Idx := f.addBlock("MA", 0x2000, []byte{})
	mat2Idx := f.addBlock("MA", 0x3000, []byte{})

	obPayload := make([]byte, 20)
	putPtr(obPayload, 0, 0x1000)
	binary.LittleEndian.PutUint32(obPayload[8:12], 2)
	putPtr(obPayload, 12, 0x4000)
	obIdx := f.addBlock("OB", 0x5000, obPayload)

	desc := NewObjectExpander()
	edges, err := desc.Expand(f, obIdx)
	require.NoError(t, err)
	assert.Contains(t, edges, meshIdx)
	assert.Contains(t, edges, mat1Idx)
	assert.Contains(t, edges, mat2Idx)
	assert.NotContains(t, edges, matArrayIdx)
}

func TestMaterialExpander_NodetreeAndMtex(t *testing.T) {
	dna := shared.BuildDNA(map[string][]shared.FieldSpec{
		"Material": {
			{Name: "nodetree", IsPointer: true, Size: 8, Offset: 0},
			{Name: "mtex", IsPointer: true, ArrayCount: 3, Size: 24, Offset: 8},
		},
	})
	f := newFakeFile(dna)

	ntIdx := f.addBlock("NT", 0x10, []byte{})
	texIdx := f.addBlock("TE", 0x20, []byte{})

	payload := make([]byte, 32)
	putPtr(payload, 0, 0x10)
	putPtr(payload, 8, 0x20)
	putPtr(payload, 16, 0)
	putPtr(payload, 24, 0x20)
	maIdx := f.addBlock("MA", 0x30, payload)

	edges, err := NewMaterialExpander().Expand(f, maIdx)
	require.NoError(t, err)
	assert.Contains(t, edges, ntIdx)
	assert.Contains(t, edges, texIdx)
}

func TestRegistry_UnionsAndDedupes(t *testing.T) {
	dna := shared.BuildDNA(map[string][]shared.FieldSpec{
		"Thing": {{Name: "a", IsPointer: true, Size: 8, Offset: 0}},
	})
	f := newFakeFile(dna)
	targetIdx := f.addBlock("TG", 0x99, []byte{})

	payload := make([]byte, 8)
	putPtr(payload, 0, 0x99)
	srcIdx := f.addBlock("TH", 0x1, payload)

	r := NewRegistry()
	r.Register("TH", SimpleDescriptor{StructName: "Thing", PointerFields: []string{"a"}})
	r.Register("TH", SimpleDescriptor{StructName: "Thing", PointerFields: []string{"a"}})

	edges := r.Expand(f, srcIdx)
	assert.Equal(t, []int{targetIdx}, edges)
}

func TestImageExpander_ExternalRefSkipsPacked(t *testing.T) {
	dna := shared.BuildDNA(map[string][]shared.FieldSpec{
		"Image": {
			{Name: "packedfile", IsPointer: true, Size: 8, Offset: 0},
			{Name: "source", Size: 4, Offset: 8},
			{Name: "filepath", Size: 16, Offset: 16},
		},
	})
	f := newFakeFile(dna)

	packed := make([]byte, 32)
	putPtr(packed, 0, 0xABC)
	binary.LittleEndian.PutUint32(packed[8:12], imaSrcFile)
	copy(packed[16:], "//tex.png")
	packedIdx := f.addBlock("IM", 0x50, packed)

	exp := NewImageExpander().(ExternalRefExpander)
	refs, err := exp.ExpandExternal(f, packedIdx)
	require.NoError(t, err)
	assert.Empty(t, refs)

	unpacked := make([]byte, 32)
	binary.LittleEndian.PutUint32(unpacked[8:12], imaSrcFile)
	copy(unpacked[16:], "//tex.png")
	unpackedIdx := f.addBlock("IM", 0x60, unpacked)

	refs, err = exp.ExpandExternal(f, unpackedIdx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "image", refs[0].Kind)
	assert.Equal(t, "//tex.png", refs[0].Path)
}

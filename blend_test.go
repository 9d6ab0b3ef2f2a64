package blend

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendgraph/blendgraph/internal/edit"
	"github.com/blendgraph/blendgraph/internal/expand"
	"github.com/blendgraph/blendgraph/internal/filter"
	"github.com/blendgraph/blendgraph/internal/trace"
)

// buildBlockHeader encodes a legacy-64 block header: code[4] size:u32
// old_address:u64 sdna_index:u32 count:u32.
func buildBlockHeader(code string, size uint32, addr uint64, sdnaIdx uint32) []byte {
	buf := make([]byte, 24)
	copy(buf[0:4], code)
	binary.LittleEndian.PutUint32(buf[4:8], size)
	binary.LittleEndian.PutUint64(buf[8:16], addr)
	binary.LittleEndian.PutUint32(buf[16:20], sdnaIdx)
	binary.LittleEndian.PutUint32(buf[20:24], 1)
	return buf
}

func nulPad(s string, n int) []byte {
	out := make([]byte, n)
	copy(out, s)
	return out
}

// buildDNAPayload defines three structs against a fixture with an Object
// (OB) block whose "data" pointer resolves to a Mesh (ME) block, and an
// ID{name[66]} struct shared by every ID-block type (embedded at offset
// zero, per Blender convention).
func buildDNAPayload() []byte {
	var buf []byte
	appendTag := func(tag string) { buf = append(buf, []byte(tag)...) }
	appendU32 := func(v uint32) {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	appendU16 := func(v uint16) {
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	appendStr := func(s string) { buf = append(buf, append([]byte(s), 0)...) }
	pad4 := func() {
		for len(buf)%4 != 0 {
			buf = append(buf, 0)
		}
	}

	appendTag("SDNA")

	appendTag("NAME")
	appendU32(3)
	appendStr("name[66]")
	appendStr("*data")
	appendStr("name[32]")
	pad4()

	appendTag("TYPE")
	appendU32(4)
	appendStr("char")
	appendStr("ID")
	appendStr("Library")
	appendStr("Object")
	pad4()

	appendTag("TLEN")
	appendU16(1) // char
	appendU16(0) // ID (size computed from fields)
	appendU16(0) // Library
	appendU16(0) // Object
	pad4()

	appendTag("STRC")
	appendU32(3)
	// struct ID: typeIdx=1, 1 field (fieldTypeIdx=0 char, fieldNameIdx=0 "name[66]")
	appendU16(1)
	appendU16(1)
	appendU16(0)
	appendU16(0)
	// struct Library: typeIdx=2, 1 field (fieldTypeIdx=0 char, fieldNameIdx=2 "name[32]")
	appendU16(2)
	appendU16(1)
	appendU16(0)
	appendU16(2)
	// struct Object: typeIdx=3, 2 fields. First the embedded ID name bytes
	// (fieldTypeIdx=0 char, fieldNameIdx=0 "name[66]") so Object.data lands
	// after the 66-byte name region, matching real Blender layout where
	// Object's "data" pointer follows its embedded "ID id" member.
	appendU16(3)
	appendU16(2)
	appendU16(0)
	appendU16(0)
	appendU16(0)
	appendU16(1)

	return buf
}

type testFile struct {
	path       string
	obBlockIdx int
	meBlockIdx int
	liBlockIdx int
}

func writeTestFile(t *testing.T) testFile {
	t.Helper()

	header := append([]byte("BLENDER"), '-', 'v', '2', '8', '0')

	obPayload := append(nulPad("OBCube", 66), make([]byte, 8)...)
	binary.LittleEndian.PutUint64(obPayload[66:74], 0x2000)
	mePayload := nulPad("MEMesh", 66)
	liPayload := nulPad("//old.blend", 32)
	dnaPayload := buildDNAPayload()

	var buf []byte
	buf = append(buf, header...)

	buf = append(buf, buildBlockHeader("OB", uint32(len(obPayload)), 0x1000, 2)...)
	buf = append(buf, obPayload...)

	buf = append(buf, buildBlockHeader("ME", uint32(len(mePayload)), 0x2000, 0)...)
	buf = append(buf, mePayload...)

	buf = append(buf, buildBlockHeader("LI", uint32(len(liPayload)), 0x3000, 1)...)
	buf = append(buf, liPayload...)

	buf = append(buf, buildBlockHeader("DNA1", uint32(len(dnaPayload)), 0x4000, 0)...)
	buf = append(buf, dnaPayload...)

	buf = append(buf, buildBlockHeader("ENDB", 0, 0, 0)...)

	dir := t.TempDir()
	path := filepath.Join(dir, "scene.blend")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	return testFile{path: path, obBlockIdx: 0, meBlockIdx: 1, liBlockIdx: 2}
}

func TestOpen_DecodesHeaderAndBlocks(t *testing.T) {
	tf := writeTestFile(t)
	f, err := Open(tf.path, Options{})
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, 8, f.PointerSize())
	assert.Equal(t, 5, f.BlockCount())
	assert.Equal(t, "OB", f.Block(tf.obBlockIdx).Header.CodeString())
}

func TestFile_TraceFollowsObjectDataPointer(t *testing.T) {
	tf := writeTestFile(t)
	f, err := Open(tf.path, Options{})
	require.NoError(t, err)
	defer f.Close()

	reg := expand.NewRegistry()
	reg.Register("OB", expand.NewObjectExpander())
	f.reg = reg

	result, err := f.Trace(context.Background(), tf.obBlockIdx, trace.Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{tf.meBlockIdx}, result.Order)
}

func TestFile_FilterByCode(t *testing.T) {
	tf := writeTestFile(t)
	f, err := Open(tf.path, Options{})
	require.NoError(t, err)
	defer f.Close()

	survivors, err := f.Filter(context.Background(), []string{"-code=.*", "+code=OB"}, filter.DataHide)
	require.NoError(t, err)
	assert.Equal(t, []int{tf.obBlockIdx}, survivors)
}

func TestFile_RenameThenSetLibraryPath(t *testing.T) {
	tf := writeTestFile(t)
	f, err := Open(tf.path, Options{})
	require.NoError(t, err)
	require.NoError(t, f.Rename(tf.obBlockIdx, "Cube2", edit.Options{}))
	require.NoError(t, f.Close())

	f2, err := Open(tf.path, Options{})
	require.NoError(t, err)
	defer f2.Close()

	view, err := f2.FieldView(tf.obBlockIdx)
	require.NoError(t, err)
	name, err := view.ReadFieldString("ID", "name")
	require.NoError(t, err)
	assert.Equal(t, "OBCube2", name)

	require.NoError(t, f2.SetLibraryPath(tf.liBlockIdx, "new.blend", edit.Options{}))
}

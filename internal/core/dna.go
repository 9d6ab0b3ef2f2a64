package core

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/blendgraph/blendgraph/internal/source"
	"github.com/blendgraph/blendgraph/internal/utils"
)

// DNAField is one field of a DNA struct: a name token (e.g. "*next",
// "co[3]") decomposed into a base name plus pointer/array properties, and
// its resolved byte size and offset within the owning struct.
type DNAField struct {
	FullName    string
	BaseName    string
	TypeName    string
	IsPointer   bool
	IsMethodPtr bool
	ArrayCount  int
	Size        uint32
	Offset      uint32
}

// DNAStruct is one decoded STRC entry: a type name plus its ordered
// fields and a name→index map for O(1) field lookup.
type DNAStruct struct {
	TypeName    string
	Size        uint16
	Fields      []DNAField
	fieldByName map[string]int
}

// FieldByName returns the struct's field with the given base name and
// whether it was found. Tolerant of missing fields, matching the
// decoder's find-field contract: callers branch on the bool rather than
// handling an error for an absent, possibly-version-specific field.
func (s *DNAStruct) FieldByName(name string) (DNAField, bool) {
	idx, ok := s.fieldByName[name]
	if !ok {
		return DNAField{}, false
	}
	return s.Fields[idx], true
}

// DNA is the decoded SDNA schema: interned names/types and the struct
// table, with lookup by type name or sdna_index.
type DNA struct {
	Names   []string
	Types   []string
	TypeLen []uint16
	Structs []DNAStruct

	structByName map[string]int
}

// StructByName looks up a struct definition by its type name (e.g.
// "Scene", "bNodeTree").
func (d *DNA) StructByName(name string) (*DNAStruct, bool) {
	idx, ok := d.structByName[name]
	if !ok {
		return nil, false
	}
	return &d.Structs[idx], true
}

// StructBySDNAIndex looks up a struct definition by its position in the
// STRC table, matching a block header's sdna_index.
func (d *DNA) StructBySDNAIndex(idx uint32) (*DNAStruct, bool) {
	if int(idx) >= len(d.Structs) {
		return nil, false
	}
	return &d.Structs[idx], true
}

// DecodeDNA finds the DNA1 block among blocks and decodes its SDNA
// payload into a DNA schema.
func DecodeDNA(src source.Source, hdr Header, blocks []Block) (*DNA, error) {
	for _, b := range blocks {
		if b.Header.CodeString() != dnaBlockCode {
			continue
		}
		payload, err := b.Payload(src)
		if err != nil {
			return nil, err
		}
		return decodeSDNAPayload(payload, hdr.ByteOrder, hdr.PointerSize)
	}
	return nil, utils.NewError(utils.DomainParser, utils.KindNoDnaFound,
		"no DNA1 block present in file").WithOperation("decode_dna")
}

func decodeSDNAPayload(payload []byte, order binary.ByteOrder, pointerSize int) (*DNA, error) {
	if len(payload) < 4 || string(payload[0:4]) != "SDNA" {
		return nil, dnaErr("DNA payload missing SDNA tag")
	}
	cur := payload[4:]

	names, cur, err := readTaggedStrings(cur, "NAME", order)
	if err != nil {
		return nil, err
	}
	types, cur, err := readTaggedStrings(cur, "TYPE", order)
	if err != nil {
		return nil, err
	}
	typeLen, cur, err := readTLEN(cur, len(types), order)
	if err != nil {
		return nil, err
	}
	structs, err := readSTRC(cur, names, types, typeLen, order, pointerSize)
	if err != nil {
		return nil, err
	}

	dna := &DNA{
		Names:        names,
		Types:        types,
		TypeLen:      typeLen,
		Structs:      structs,
		structByName: make(map[string]int, len(structs)),
	}
	for i, s := range structs {
		dna.structByName[s.TypeName] = i
	}
	return dna, nil
}

// NewDNAStructForTest builds a DNAStruct from already-decoded fields,
// used by test doubles that need a DNA schema without decoding a real
// SDNA payload.
func NewDNAStructForTest(typeName string, fields []DNAField) DNAStruct {
	s := DNAStruct{
		TypeName:    typeName,
		Fields:      fields,
		fieldByName: make(map[string]int, len(fields)),
	}
	var size uint32
	for i, f := range fields {
		s.fieldByName[f.BaseName] = i
		if end := f.Offset + f.Size; end > size {
			size = end
		}
	}
	s.Size = uint16(size)
	return s
}

// NewDNAForTest builds a DNA schema from already-built structs, used by
// test doubles alongside NewDNAStructForTest.
func NewDNAForTest(structs []DNAStruct) *DNA {
	dna := &DNA{
		Structs:      structs,
		structByName: make(map[string]int, len(structs)),
	}
	for i, s := range structs {
		dna.structByName[s.TypeName] = i
	}
	return dna
}

func dnaErr(msg string) error {
	return utils.NewError(utils.DomainParser, utils.KindInvalidData, msg).WithOperation("decode_dna")
}

// align4 returns the number of padding bytes needed to bring consumed up
// to the next 4-byte boundary, matching the alignment Blender inserts
// between DNA sub-sections.
func align4(consumed int) int {
	if rem := consumed % 4; rem != 0 {
		return 4 - rem
	}
	return 0
}

func readTaggedStrings(cur []byte, tag string, order binary.ByteOrder) ([]string, []byte, error) {
	if len(cur) < 4 || string(cur[0:4]) != tag {
		return nil, nil, dnaErr("missing " + tag + " tag in DNA payload")
	}
	cur = cur[4:]
	if len(cur) < 4 {
		return nil, nil, dnaErr("truncated " + tag + " count")
	}
	count := order.Uint32(cur[0:4])
	cur = cur[4:]

	if err := utils.ValidateArrayCount(uint64(count), tag+" count"); err != nil {
		return nil, nil, dnaErr(tag + " count exceeds sanity cap: " + err.Error())
	}

	consumed := 0
	out := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		nul := bytes.IndexByte(cur, 0)
		if nul < 0 {
			return nil, nil, dnaErr("unterminated string in " + tag + " section")
		}
		out = append(out, string(cur[:nul]))
		cur = cur[nul+1:]
		consumed += nul + 1
	}

	pad := align4(consumed)
	if pad > len(cur) {
		return nil, nil, dnaErr("truncated padding after " + tag + " section")
	}
	cur = cur[pad:]

	return out, cur, nil
}

func readTLEN(cur []byte, typeCount int, order binary.ByteOrder) ([]uint16, []byte, error) {
	if len(cur) < 4 || string(cur[0:4]) != "TLEN" {
		return nil, nil, dnaErr("missing TLEN tag in DNA payload")
	}
	cur = cur[4:]

	need := typeCount * 2
	if len(cur) < need {
		return nil, nil, dnaErr("truncated TLEN section")
	}

	lens := make([]uint16, typeCount)
	for i := 0; i < typeCount; i++ {
		lens[i] = order.Uint16(cur[i*2 : i*2+2])
	}
	cur = cur[need:]

	pad := align4(need)
	if pad > len(cur) {
		return nil, nil, dnaErr("truncated padding after TLEN section")
	}
	cur = cur[pad:]

	return lens, cur, nil
}

func readSTRC(cur []byte, names, types []string, typeLen []uint16, order binary.ByteOrder, pointerSize int) ([]DNAStruct, error) {
	if len(cur) < 4 || string(cur[0:4]) != "STRC" {
		return nil, dnaErr("missing STRC tag in DNA payload")
	}
	cur = cur[4:]
	if len(cur) < 4 {
		return nil, dnaErr("truncated STRC count")
	}
	structCount := order.Uint32(cur[0:4])
	cur = cur[4:]

	if err := utils.ValidateArrayCount(uint64(structCount), "STRC count"); err != nil {
		return nil, dnaErr("STRC count exceeds sanity cap: " + err.Error())
	}

	structs := make([]DNAStruct, 0, structCount)

	for i := uint32(0); i < structCount; i++ {
		if len(cur) < 4 {
			return nil, dnaErr("truncated struct header")
		}
		typeIdx := order.Uint16(cur[0:2])
		fieldCount := order.Uint16(cur[2:4])
		cur = cur[4:]

		if int(typeIdx) >= len(types) {
			return nil, dnaErr("struct references out-of-range type index")
		}

		s := DNAStruct{
			TypeName:    types[typeIdx],
			Fields:      make([]DNAField, 0, fieldCount),
			fieldByName: make(map[string]int, fieldCount),
		}

		var offset uint32
		for f := uint16(0); f < fieldCount; f++ {
			if len(cur) < 4 {
				return nil, dnaErr("truncated field entry")
			}
			fieldTypeIdx := order.Uint16(cur[0:2])
			fieldNameIdx := order.Uint16(cur[2:4])
			cur = cur[4:]

			if int(fieldTypeIdx) >= len(types) || int(fieldNameIdx) >= len(names) {
				return nil, dnaErr("field references out-of-range type or name index")
			}

			full := names[fieldNameIdx]
			field := parseFieldToken(full, types[fieldTypeIdx])

			var size uint32
			if field.IsPointer {
				size = uint32(pointerSize) * uint32(field.ArrayCount)
			} else if int(fieldTypeIdx) < len(typeLen) {
				size = uint32(typeLen[fieldTypeIdx]) * uint32(field.ArrayCount)
			}
			field.Size = size
			field.Offset = offset
			offset += size

			s.fieldByName[field.BaseName] = len(s.Fields)
			s.Fields = append(s.Fields, field)
		}

		if int(typeIdx) < len(typeLen) {
			s.Size = typeLen[typeIdx]
		}

		structs = append(structs, s)
	}

	return structs, nil
}

// parseFieldToken decomposes a raw DNA name token into its base name and
// pointer/array properties. Tokens look like "next", "*next", "**data",
// "(*cb)(void)" for function pointers, or "co[3]"/"mat[4][4]" for arrays.
func parseFieldToken(token, typeName string) DNAField {
	field := DNAField{FullName: token, TypeName: typeName, ArrayCount: 1}

	name := token
	if strings.Contains(name, "(*") {
		field.IsPointer = true
		field.IsMethodPtr = true
		open := strings.Index(name, "(*")
		close := strings.Index(name, ")")
		if close > open {
			name = name[open+2 : close]
		}
		field.BaseName = name
		return field
	}

	for strings.HasPrefix(name, "*") {
		field.IsPointer = true
		name = name[1:]
	}

	base := name
	count := 1
	for {
		open := strings.IndexByte(base, '[')
		if open < 0 {
			break
		}
		close := strings.IndexByte(base, ']')
		if close < open {
			break
		}
		dim := base[open+1 : close]
		if n, err := parsePositiveInt(dim); err == nil && n > 0 {
			count *= n
		}
		base = base[:open] + base[close+1:]
	}

	field.BaseName = base
	field.ArrayCount = count
	return field
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, dnaErr("empty array dimension")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, dnaErr("non-numeric array dimension")
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

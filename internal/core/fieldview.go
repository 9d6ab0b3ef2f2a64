package core

import (
	"bytes"
	"encoding/binary"

	"github.com/blendgraph/blendgraph/internal/utils"
)

// FieldView provides typed, bounds-checked reads over a single block's
// payload bytes, resolving struct/field names through DNA rather than
// requiring callers to track raw offsets.
type FieldView struct {
	data        []byte
	dna         *DNA
	pointerSize int
	order       binary.ByteOrder
}

// NewFieldView constructs a view over a block's payload bytes.
func NewFieldView(data []byte, dna *DNA, pointerSize int, order binary.ByteOrder) *FieldView {
	return &FieldView{data: data, dna: dna, pointerSize: pointerSize, order: order}
}

func (v *FieldView) fieldErr(msg, op string) error {
	return utils.NewError(utils.DomainParser, utils.KindInvalidField, msg).WithOperation(op)
}

func (v *FieldView) checkRange(offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > len(v.data) {
		return nil, v.fieldErr("field offset/length out of range for block payload", "field_read")
	}
	return v.data[offset : offset+length], nil
}

// ReadU8 reads a single byte at offset.
func (v *FieldView) ReadU8(offset int) (uint8, error) {
	b, err := v.checkRange(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a 16-bit value at offset.
func (v *FieldView) ReadU16(offset int) (uint16, error) {
	b, err := v.checkRange(offset, 2)
	if err != nil {
		return 0, err
	}
	return v.order.Uint16(b), nil
}

// ReadU32 reads a 32-bit value at offset.
func (v *FieldView) ReadU32(offset int) (uint32, error) {
	b, err := v.checkRange(offset, 4)
	if err != nil {
		return 0, err
	}
	return v.order.Uint32(b), nil
}

// ReadU64 reads a 64-bit value at offset.
func (v *FieldView) ReadU64(offset int) (uint64, error) {
	b, err := v.checkRange(offset, 8)
	if err != nil {
		return 0, err
	}
	return v.order.Uint64(b), nil
}

// ReadPointer reads a pointer-sized integer at offset, widening a 4-byte
// pointer to uint64 when the file uses 32-bit pointers.
func (v *FieldView) ReadPointer(offset int) (uint64, error) {
	if v.pointerSize == 4 {
		val, err := v.ReadU32(offset)
		return uint64(val), err
	}
	return v.ReadU64(offset)
}

// resolveField looks up structName.fieldName in DNA and returns the
// field's decoded descriptor.
func (v *FieldView) resolveField(structName, fieldName string) (DNAField, error) {
	st, ok := v.dna.StructByName(structName)
	if !ok {
		return DNAField{}, v.fieldErr("struct \""+structName+"\" not present in DNA", "resolve_field")
	}
	field, ok := st.FieldByName(fieldName)
	if !ok {
		return DNAField{}, v.fieldErr("field \""+fieldName+"\" not present on struct \""+structName+"\"", "resolve_field")
	}
	return field, nil
}

// ReadFieldU32 reads structName.fieldName as a u32.
func (v *FieldView) ReadFieldU32(structName, fieldName string) (uint32, error) {
	field, err := v.resolveField(structName, fieldName)
	if err != nil {
		return 0, err
	}
	return v.ReadU32(int(field.Offset))
}

// ReadFieldPointer reads structName.fieldName as a pointer-sized value.
func (v *FieldView) ReadFieldPointer(structName, fieldName string) (uint64, error) {
	field, err := v.resolveField(structName, fieldName)
	if err != nil {
		return 0, err
	}
	return v.ReadPointer(int(field.Offset))
}

// ReadFieldString reads structName.fieldName as a fixed-size byte array
// and truncates at the first NUL, used for ID.name and similar
// fixed-width character buffers.
func (v *FieldView) ReadFieldString(structName, fieldName string) (string, error) {
	field, err := v.resolveField(structName, fieldName)
	if err != nil {
		return "", err
	}
	raw, err := v.checkRange(int(field.Offset), int(field.Size))
	if err != nil {
		return "", err
	}
	if nul := bytes.IndexByte(raw, 0); nul >= 0 {
		raw = raw[:nul]
	}
	return string(raw), nil
}

// ReadFieldPointerAt reads the index'th pointer-sized slot of a fixed-size
// embedded pointer array field, e.g. Material.mtex[18]. index must be
// within the field's declared ArrayCount.
func (v *FieldView) ReadFieldPointerAt(structName, fieldName string, index int) (uint64, error) {
	field, err := v.resolveField(structName, fieldName)
	if err != nil {
		return 0, err
	}
	if index < 0 || (field.ArrayCount > 0 && index >= field.ArrayCount) {
		return 0, v.fieldErr("array index out of range for field \""+fieldName+"\"", "field_read")
	}
	return v.ReadPointer(int(field.Offset) + index*v.pointerSize)
}

// LookupField returns the DNA field descriptor for structName.fieldName,
// letting callers branch on properties like IsPointer before deciding how
// to interpret a raw value (e.g. an embedded ListBase vs. a pointer to
// one).
func (v *FieldView) LookupField(structName, fieldName string) (DNAField, bool) {
	st, ok := v.dna.StructByName(structName)
	if !ok {
		return DNAField{}, false
	}
	return st.FieldByName(fieldName)
}

// TryField reports whether structName.fieldName exists in DNA without
// reading it, used by expanders that must stay total in the face of
// struct-version differences (e.g. Collection vs Group).
func (v *FieldView) TryField(structName, fieldName string) bool {
	st, ok := v.dna.StructByName(structName)
	if !ok {
		return false
	}
	_, ok = st.FieldByName(fieldName)
	return ok
}

package expand

// maxMtexSlots bounds the mtex walk if DNA ever reports an implausible
// ArrayCount for the field, mirroring the sanity caps elsewhere in expand.
const maxMtexSlots = 64

// NewMaterialExpander builds the expander for Material ("MA") blocks: a
// node tree pointer plus the fixed-size mtex texture-slot array, which is
// embedded directly in the struct rather than a separately allocated
// block, so it's walked by index rather than through the Simple
// count/array-pointer shape.
func NewMaterialExpander() HybridExpander {
	return HybridExpander{
		Simple: SimpleDescriptor{
			StructName:    "Material",
			PointerFields: []string{"nodetree"},
		},
		Tail: expandMaterialMtex,
	}
}

func expandMaterialMtex(file ParsedFile, blockIdx int) ([]int, error) {
	view, err := file.FieldView(blockIdx)
	if err != nil {
		return nil, err
	}
	if !view.TryField("Material", "mtex") {
		return nil, nil
	}
	field, ok := view.LookupField("Material", "mtex")
	if !ok || !field.IsPointer {
		return nil, nil
	}

	slots := field.ArrayCount
	if slots <= 0 || slots > maxMtexSlots {
		slots = maxMtexSlots
	}

	var out []int
	for i := 0; i < slots; i++ {
		addr, err := view.ReadFieldPointerAt("Material", "mtex", i)
		if err != nil {
			break
		}
		if addr == 0 {
			continue
		}
		if idx, ok := file.FindByAddress(addr); ok {
			out = append(out, idx)
		}
	}
	return out, nil
}

package expand

// Texture type constants from Blender's Tex.type, used to pick which
// pointer field (if any) holds the external data reference.
const (
	texImage       = 0
	texVoxelData   = 14
	texPointDensity = 15
	texOcean       = 16
)

// NewTextureExpander builds the expander for Texture ("TE") blocks: a
// type-discriminated data pointer plus an always-checked node tree
// pointer.
func NewTextureExpander() CustomExpander {
	return CustomExpander{Fn: expandTexture}
}

func expandTexture(file ParsedFile, blockIdx int) ([]int, error) {
	view, err := file.FieldView(blockIdx)
	if err != nil {
		return nil, err
	}

	var out []int

	if view.TryField("Tex", "type") {
		texType, err := view.ReadFieldU32("Tex", "type")
		if err == nil {
			field := texTypeField(texType)
			if field != "" && view.TryField("Tex", field) {
				if addr, err := view.ReadFieldPointer("Tex", field); err == nil && addr != 0 {
					if idx, ok := file.FindByAddress(addr); ok {
						out = append(out, idx)
					}
				}
			}
		}
	}

	if view.TryField("Tex", "nodetree") {
		if addr, err := view.ReadFieldPointer("Tex", "nodetree"); err == nil && addr != 0 {
			if idx, ok := file.FindByAddress(addr); ok {
				out = append(out, idx)
			}
		}
	}

	return out, nil
}

func texTypeField(texType uint32) string {
	switch texType {
	case texImage:
		return "ima"
	case texVoxelData:
		return "vd"
	case texPointDensity:
		return "pd"
	case texOcean:
		return "ot"
	default:
		return ""
	}
}

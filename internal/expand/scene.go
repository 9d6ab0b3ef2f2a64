package expand

// maxLinkedListWalk caps the number of nodes walked in any intrusive
// linked list (ListBase-style first/next chains), matching the safety
// limit observed on both the Scene.base and node-tree traversals.
const maxLinkedListWalk = 100

// NewSceneExpander builds the expander for Scene ("SC") blocks: single
// camera/world/set/clip pointers, the modern master_collection pointer
// (which also triggers a direct Collection expansion as a safety net),
// and the legacy base.first linked list of Base->object references.
func NewSceneExpander() HybridExpander {
	return HybridExpander{
		Simple: SimpleDescriptor{
			StructName:    "Scene",
			PointerFields: []string{"camera", "world", "set", "clip", "master_collection"},
		},
		Tail: expandSceneLegacyAndCollection,
	}
}

func expandSceneLegacyAndCollection(file ParsedFile, blockIdx int) ([]int, error) {
	var out []int

	view, err := file.FieldView(blockIdx)
	if err != nil {
		return nil, err
	}

	if view.TryField("Scene", "base") {
		// Scene.base is an embedded ListBase, not a pointer field; its
		// "first" member sits at the same offset as the embedded struct
		// itself, so reading a pointer-sized value at that offset yields
		// ListBase.first directly without needing a synthetic DNA entry.
		if baseFirst, err := view.ReadFieldPointer("Scene", "base"); err == nil && baseFirst != 0 {
			out = append(out, walkBaseObjects(file, baseFirst)...)
		}
	}

	if view.TryField("Scene", "master_collection") {
		addr, err := view.ReadFieldPointer("Scene", "master_collection")
		if err == nil && addr != 0 {
			if idx, ok := file.FindByAddress(addr); ok {
				collExpander := NewCollectionExpander()
				if edges, err := collExpander.Expand(file, idx); err == nil {
					out = append(out, edges...)
				}
			}
		}
	}

	return out, nil
}

func walkBaseObjects(file ParsedFile, firstPtr uint64) []int {
	var out []int
	current := firstPtr
	count := 0

	for current != 0 && count < maxLinkedListWalk {
		idx, ok := file.FindByAddress(current)
		if !ok {
			break
		}
		count++

		view, err := file.FieldView(idx)
		if err != nil {
			break
		}

		if addr, err := view.ReadFieldPointer("Base", "object"); err == nil && addr != 0 {
			if objIdx, ok := file.FindByAddress(addr); ok {
				out = append(out, objIdx)
			}
		}

		next, err := view.ReadFieldPointer("Base", "next")
		if err != nil {
			break
		}
		current = next
	}

	return out
}

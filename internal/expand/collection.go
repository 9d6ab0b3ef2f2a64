package expand

import "github.com/blendgraph/blendgraph/internal/core"

// NewCollectionExpander builds the expander for Collection/Group ("GR")
// blocks and DATA blocks that turn out to carry collection fields: the
// gobject linked list of member objects and the children linked list of
// nested collections.
func NewCollectionExpander() CustomExpander {
	return CustomExpander{Fn: expandCollection}
}

func expandCollection(file ParsedFile, blockIdx int) ([]int, error) {
	view, err := file.FieldView(blockIdx)
	if err != nil {
		return nil, err
	}

	code := file.Block(blockIdx).Header.CodeString()
	if code == "DATA" {
		hasGobject := view.TryField("Collection", "gobject") || view.TryField("Group", "gobject")
		hasChildren := view.TryField("Collection", "children")
		if !hasGobject && !hasChildren {
			return nil, nil
		}
	}

	var out []int

	gobjectFirst := readPointerEitherStruct(view, "Collection", "Group", "gobject")
	if gobjectFirst != 0 {
		out = append(out, walkCollectionObjects(file, gobjectFirst)...)
	}

	childrenFirst := readPointerEitherStruct(view, "Collection", "", "children")
	if childrenFirst != 0 {
		out = append(out, walkCollectionChildren(file, childrenFirst)...)
	}

	return out, nil
}

// readPointerEitherStruct reads fieldName as an embedded-ListBase "first"
// pointer under primaryStruct, falling back to fallbackStruct when the
// field isn't present under the primary name (Collection vs. the legacy
// Group struct).
func readPointerEitherStruct(view *core.FieldView, primaryStruct, fallbackStruct, fieldName string) uint64 {
	if view.TryField(primaryStruct, fieldName) {
		if v, err := view.ReadFieldPointer(primaryStruct, fieldName); err == nil {
			return v
		}
	}
	if fallbackStruct != "" && view.TryField(fallbackStruct, fieldName) {
		if v, err := view.ReadFieldPointer(fallbackStruct, fieldName); err == nil {
			return v
		}
	}
	return 0
}

func walkCollectionObjects(file ParsedFile, firstPtr uint64) []int {
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

		ob := readPointerEitherStruct(view, "CollectionObject", "GroupObject", "ob")
		if ob != 0 {
			if objIdx, ok := file.FindByAddress(ob); ok {
				out = append(out, objIdx)
			}
		}

		next := readPointerEitherStruct(view, "CollectionObject", "GroupObject", "next")
		current = next
	}

	return out
}

func walkCollectionChildren(file ParsedFile, firstPtr uint64) []int {
	var out []int
	current := firstPtr
	count := 0
	seen := map[uint64]struct{}{}

	for current != 0 && count < maxLinkedListWalk {
		if _, dup := seen[current]; dup {
			break
		}
		seen[current] = struct{}{}

		idx, ok := file.FindByAddress(current)
		if !ok {
			break
		}
		count++

		view, err := file.FieldView(idx)
		if err != nil {
			break
		}

		collection := readPointerEitherStruct(view, "CollectionChild", "", "collection")
		if collection != 0 {
			if collIdx, ok := file.FindByAddress(collection); ok {
				out = append(out, collIdx)
				if childEdges, err := expandCollection(file, collIdx); err == nil {
					out = append(out, childEdges...)
				}
			}
		}

		next := readPointerEitherStruct(view, "CollectionChild", "", "next")
		current = next
	}

	return out
}

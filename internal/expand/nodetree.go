package expand

// nodeTreeStructNames are tried in order when resolving the "nodes" field
// across Blender's bNodeTree (current) and NodeTree (legacy) struct names.
var nodeTreeStructNames = []string{"bNodeTree", "NodeTree"}

// NewNodeTreeExpander builds the expander for NodeTree ("NT") blocks: it
// locates the nodes ListBase (either a pointer to a separate ListBase
// block or an embedded ListBase) and walks the bNode linked list,
// following each node's "id" cross-reference.
func NewNodeTreeExpander() CustomExpander {
	return CustomExpander{Fn: expandNodeTree}
}

func expandNodeTree(file ParsedFile, blockIdx int) ([]int, error) {
	view, err := file.FieldView(blockIdx)
	if err != nil {
		return nil, err
	}

	var rawValue uint64
	var fieldIsPointer bool
	found := false
	for _, name := range nodeTreeStructNames {
		if field, ok := view.LookupField(name, "nodes"); ok {
			if v, err := view.ReadFieldPointer(name, "nodes"); err == nil {
				rawValue = v
				fieldIsPointer = field.IsPointer
				found = true
				break
			}
		}
	}

	if !found || rawValue == 0 {
		return nil, nil
	}

	var firstNode uint64
	if fieldIsPointer {
		// "nodes" is a pointer to a standalone ListBase block; resolve it
		// and read its "first" member.
		if listIdx, ok := file.FindByAddress(rawValue); ok {
			if listView, err := file.FieldView(listIdx); err == nil {
				if listView.TryField("ListBase", "first") {
					firstNode, _ = listView.ReadFieldPointer("ListBase", "first")
				}
			}
		}
	} else {
		// "nodes" is an embedded ListBase; its "first" member sits at the
		// field's own offset, so the raw value already is ListBase.first.
		firstNode = rawValue
	}

	if firstNode == 0 {
		return nil, nil
	}

	return walkNodes(file, firstNode), nil
}

func walkNodes(file ParsedFile, firstPtr uint64) []int {
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

		if addr, err := view.ReadFieldPointer("bNode", "id"); err == nil && addr != 0 {
			if refIdx, ok := file.FindByAddress(addr); ok {
				out = append(out, refIdx)
			}
		}

		next, err := view.ReadFieldPointer("bNode", "next")
		if err != nil {
			break
		}
		current = next
	}

	return out
}

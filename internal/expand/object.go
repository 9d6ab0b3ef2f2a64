package expand

// NewObjectExpander builds the expander for Object ("OB") blocks: the
// owned data-block pointer, the material-slot array, and the handful of
// miscellaneous owner pointers (parent, proxy, proxy_group) worth
// following.
func NewObjectExpander() SimpleDescriptor {
	return SimpleDescriptor{
		StructName:    "Object",
		PointerFields: []string{"data", "parent", "proxy", "proxy_group"},
		ArrayFields: []ArrayFieldPair{
			{CountField: "totcol", ArrayField: "mat"},
		},
	}
}

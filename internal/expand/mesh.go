package expand

// NewMeshExpander builds the expander for Mesh ("ME") blocks: the
// material-slot array shared with Object.
func NewMeshExpander() SimpleDescriptor {
	return SimpleDescriptor{
		StructName: "Mesh",
		ArrayFields: []ArrayFieldPair{
			{CountField: "totcol", ArrayField: "mat"},
		},
	}
}

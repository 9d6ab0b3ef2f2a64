package expand

import "github.com/blendgraph/blendgraph/internal/names"

// libraryExpander reports a Library block's linked-file path as an
// external reference. Library blocks hold the path other blocks link
// against, not a dependency edge of their own.
type libraryExpander struct{}

// NewLibraryExpander builds the expander for Library ("LI") blocks.
func NewLibraryExpander() Expander {
	return libraryExpander{}
}

func (libraryExpander) Expand(ParsedFile, int) ([]int, error) {
	return nil, nil
}

func (libraryExpander) ExpandExternal(file ParsedFile, blockIdx int) ([]ExternalRef, error) {
	view, err := file.FieldView(blockIdx)
	if err != nil {
		return nil, err
	}
	if !view.TryField("Library", "name") {
		return nil, nil
	}
	raw, err := view.ReadFieldString("Library", "name")
	if err != nil || raw == "" {
		return nil, nil
	}
	path := names.NewBlendPath(raw)
	return []ExternalRef{{BlockIdx: blockIdx, Path: path.String(), Kind: "library"}}, nil
}

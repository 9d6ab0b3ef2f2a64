package expand

import "github.com/blendgraph/blendgraph/internal/names"

// Image source-type discriminators (Image.source) that indicate a
// file-backed image worth surfacing as an external reference.
const (
	imaSrcFile     = 1
	imaSrcSequence = 2
	imaSrcMovie    = 3
	imaSrcTiled    = 5
)

// imageExpander reports the Image block's external file path rather than
// an internal block edge: images never point at other blocks in the
// dependency graph, only at files on disk.
type imageExpander struct{}

// NewImageExpander builds the expander for Image ("IM") blocks.
func NewImageExpander() Expander {
	return imageExpander{}
}

func (imageExpander) Expand(ParsedFile, int) ([]int, error) {
	return nil, nil
}

func (imageExpander) ExpandExternal(file ParsedFile, blockIdx int) ([]ExternalRef, error) {
	view, err := file.FieldView(blockIdx)
	if err != nil {
		return nil, err
	}

	if view.TryField("Image", "packedfile") {
		if addr, err := view.ReadFieldPointer("Image", "packedfile"); err == nil && addr != 0 {
			return nil, nil
		}
	}

	if !view.TryField("Image", "source") {
		return nil, nil
	}
	src, err := view.ReadFieldU32("Image", "source")
	if err != nil {
		return nil, nil
	}
	switch src {
	case imaSrcFile, imaSrcSequence, imaSrcMovie, imaSrcTiled:
	default:
		return nil, nil
	}

	if !view.TryField("Image", "filepath") {
		return nil, nil
	}
	raw, err := view.ReadFieldString("Image", "filepath")
	if err != nil || raw == "" {
		return nil, nil
	}

	path := names.NewBlendPath(raw)
	return []ExternalRef{{BlockIdx: blockIdx, Path: path.String(), Kind: "image"}}, nil
}

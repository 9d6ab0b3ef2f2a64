package edit

import (
	"bytes"
	"strings"

	"github.com/blendgraph/blendgraph/internal/names"
	"github.com/blendgraph/blendgraph/internal/utils"
)

// SetLibraryPath overwrites the Library.name (filepath) field of the
// Library block at blockIdx. A path with no slashes is normalized to
// blendfile-relative ("//name"); the final path must be absolute or
// blendfile-relative, matching Blender's library-path convention.
func SetLibraryPath(path string, blockIdx int, newPath string, opts Options) error {
	normalized := newPath
	if !strings.Contains(normalized, "/") && !strings.Contains(normalized, "\\") {
		normalized = "//" + normalized
	}
	bp := names.NewBlendPath(normalized)
	if !bp.IsBlendfileRelative() && !bp.IsAbsolute() {
		return editErr(utils.KindInvalidLibraryPath, "library path must be absolute or blendfile-relative: "+newPath).
			WithOperation("set_library_path").WithBlock(blockIdx)
	}
	utils.Log.WithField("path", bp.String()).Debug("set_library_path: input validated")

	f, err := openForEdit(path)
	if err != nil {
		return err
	}

	block, payload, field, err := f.locateField(blockIdx, "Library", "name")
	if err != nil {
		return err
	}
	if block.Header.CodeString() != "LI" {
		return editErr(utils.KindInvalidLibraryPath, "block is not a Library (LI) block").
			WithOperation("set_library_path").WithBlock(blockIdx)
	}

	current := fieldBytes(payload, field)
	newBytes := nameFieldBytes(bp.String(), int(field.Size))
	if !opts.SkipNoopCheck && bytes.Equal(current, newBytes) {
		return editErr(utils.KindInvalidLibraryPath, "no change detected: new library path is identical to the current path").
			WithOperation("set_library_path").WithBlock(blockIdx)
	}

	if err := writeField(path, block, field, newBytes); err != nil {
		return err
	}

	utils.Log.WithFields(map[string]interface{}{
		"path":  path,
		"block": blockIdx,
		"value": bp.String(),
	}).Info("set_library_path: library path updated")
	return nil
}

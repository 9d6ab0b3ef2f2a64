package edit

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/blendgraph/blendgraph/internal/core"
	"github.com/blendgraph/blendgraph/internal/utils"
)

// maxBlockNameLength bounds the user-facing portion of an ID.name, after
// the 2-character type-code prefix Blender always stores.
const maxBlockNameLength = 64

// Rename overwrites the ID.name field of the block at blockIdx with the
// block's existing 2-character type-code prefix followed by newName,
// preserving every other byte of the block and file.
func Rename(path string, blockIdx int, newName string, opts Options) error {
	if err := validateNewName(newName); err != nil {
		return err
	}
	utils.Log.WithField("name", newName).Debug("rename: input validated")

	f, err := openForEdit(path)
	if err != nil {
		return err
	}

	block, payload, field, err := f.locateField(blockIdx, "ID", "name")
	if err != nil {
		return err
	}

	prefix := typeCodePrefix(block.Header.CodeString())
	newValue := prefix + newName

	current := fieldBytes(payload, field)
	newBytes := nameFieldBytes(newValue, int(field.Size))
	if !opts.SkipNoopCheck && bytes.Equal(current, newBytes) {
		return editErr(utils.KindInvalidName, "no change detected: new name is identical to the current name").
			WithOperation("rename").WithBlock(blockIdx)
	}

	if err := writeField(path, block, field, newBytes); err != nil {
		return err
	}

	utils.Log.WithFields(map[string]interface{}{
		"path":  path,
		"block": blockIdx,
		"name":  newValue,
	}).Info("rename: block renamed")
	return nil
}

func validateNewName(name string) error {
	if len(name) > maxBlockNameLength {
		return editErr(utils.KindNameTooLong,
			"name too long (max "+strconv.Itoa(maxBlockNameLength)+" characters after type prefix): "+name)
	}
	for _, c := range name {
		if c > 0x7e || c < 0x20 {
			return editErr(utils.KindInvalidCharacters, "invalid characters in name (only ASCII printable allowed): "+name)
		}
	}
	if strings.TrimSpace(name) == "" {
		return editErr(utils.KindInvalidCharacters, "empty name")
	}
	return nil
}

// typeCodePrefix normalizes a block code to the 2-character prefix
// Blender's ID.name convention expects, returning a shorter code (never
// observed in practice, but kept total) unchanged rather than panicking.
func typeCodePrefix(code string) string {
	if len(code) >= 2 {
		return code[:2]
	}
	return code
}

func fieldBytes(payload []byte, field core.DNAField) []byte {
	start := int(field.Offset)
	end := start + int(field.Size)
	if end > len(payload) {
		end = len(payload)
	}
	return payload[start:end]
}

func nameFieldBytes(value string, size int) []byte {
	out := make([]byte, size)
	n := len(value)
	if n > size-1 {
		n = size - 1
	}
	copy(out, value[:n])
	return out
}

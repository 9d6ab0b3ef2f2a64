// Package core implements the binary decoding layer: file header
// classification, block scanning, DNA (SDNA) decoding, typed field access
// over a block's payload, pointer/type indexes, and content hashing.
package core

import (
	"encoding/binary"

	"github.com/blendgraph/blendgraph/internal/source"
	"github.com/blendgraph/blendgraph/internal/utils"
)

const (
	legacyMagicLen = 7
	legacyHeaderLen = 12
	v5Magic        = "BLENDER17-01v0500"
	v5HeaderLen    = len(v5Magic)
)

// FormatVersion distinguishes the legacy block-header layout family from
// the v5 layout, which carries wider size/count fields and a different
// field order.
type FormatVersion int

const (
	FormatLegacy FormatVersion = iota
	FormatV5
)

// Header describes the decoded leading bytes of a .blend file: pointer
// width, byte order, and which block-header layout the rest of the file
// uses.
type Header struct {
	Version     FormatVersion
	PointerSize int
	ByteOrder   binary.ByteOrder
	FileVersion string
}

// DecodeHeader classifies the magic at the start of src and returns the
// decoded Header, or a typed error identifying which part of the magic
// failed to match.
func DecodeHeader(src source.Source) (Header, error) {
	if src.Len() >= int64(v5HeaderLen) {
		head, err := source.CheckedSlice(src, 0, int64(v5HeaderLen), "decode_header")
		if err == nil && string(head) == v5Magic {
			return Header{
				Version:     FormatV5,
				PointerSize: 8,
				ByteOrder:   binary.LittleEndian,
				FileVersion: "0500",
			}, nil
		}
	}

	if src.Len() < int64(legacyHeaderLen) {
		return Header{}, utils.NewError(utils.DomainParser, utils.KindInvalidHeader,
			"source is too short to contain a BLENDER header").WithOperation("decode_header")
	}

	head, err := source.CheckedSlice(src, 0, int64(legacyHeaderLen), "decode_header")
	if err != nil {
		return Header{}, err
	}

	if string(head[:legacyMagicLen]) != "BLENDER" {
		return Header{}, utils.NewError(utils.DomainParser, utils.KindInvalidMagic,
			"missing BLENDER magic").WithOperation("decode_header")
	}

	var pointerSize int
	switch head[7] {
	case '_':
		pointerSize = 4
	case '-':
		pointerSize = 8
	default:
		return Header{}, utils.NewError(utils.DomainParser, utils.KindInvalidHeader,
			"unrecognized pointer-size character").WithOperation("decode_header")
	}

	var order binary.ByteOrder
	switch head[8] {
	case 'v':
		order = binary.LittleEndian
	case 'V':
		order = binary.BigEndian
	default:
		return Header{}, utils.NewError(utils.DomainParser, utils.KindInvalidHeader,
			"unrecognized endianness character").WithOperation("decode_header")
	}

	version := string(head[9:12])
	for _, c := range version {
		if c < '0' || c > '9' {
			return Header{}, utils.NewError(utils.DomainParser, utils.KindUnsupportedVersion,
				"version digits are not numeric").WithOperation("decode_header")
		}
	}

	return Header{
		Version:     FormatLegacy,
		PointerSize: pointerSize,
		ByteOrder:   order,
		FileVersion: version,
	}, nil
}

// HeaderLen returns the byte length consumed by the header, i.e. the
// offset at which block scanning begins.
func (h Header) HeaderLen() int {
	if h.Version == FormatV5 {
		return v5HeaderLen
	}
	return legacyHeaderLen
}

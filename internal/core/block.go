package core

import (
	"github.com/blendgraph/blendgraph/internal/source"
	"github.com/blendgraph/blendgraph/internal/utils"
)

// averageBlockSize seeds the block slice's initial capacity: empirically a
// .blend file averages roughly 130 bytes per block (header + payload),
// so source_len/130 avoids reallocation on the common case without
// overcommitting on small files.
const averageBlockSize = 130

// endBlockCode terminates block scanning.
const endBlockCode = "ENDB"

// dnaBlockCode identifies the block carrying the SDNA schema.
const dnaBlockCode = "DNA1"

// BlockHeader is the decoded fixed-size header preceding a block's
// payload, normalized across the legacy-32, legacy-64, and v5 layouts.
type BlockHeader struct {
	Code       [4]byte
	Size       uint64
	OldAddress uint64
	SDNAIndex  uint32
	Count      uint32
}

// CodeString returns the block code as a string, e.g. "OB", "ME", "ENDB".
func (h BlockHeader) CodeString() string {
	n := 4
	for n > 0 && h.Code[n-1] == 0 {
		n--
	}
	return string(h.Code[:n])
}

// Block is a scanned block: its header plus the byte offsets of the
// header and payload within the source.
type Block struct {
	Header        BlockHeader
	HeaderOffset  int64
	PayloadOffset int64
}

// Payload returns the block's payload bytes from src.
func (b Block) Payload(src source.Source) ([]byte, error) {
	end := b.PayloadOffset + int64(b.Header.Size)
	return source.CheckedSlice(src, b.PayloadOffset, end, "read_block_payload")
}

// headerLayoutSize returns the byte length of one block header for the
// given file header's format version and pointer size.
func headerLayoutSize(h Header) int64 {
	switch {
	case h.Version == FormatV5:
		return 32
	case h.PointerSize == 8:
		return 24
	default:
		return 20
	}
}

// ScanBlocks walks every block header starting immediately after the file
// header, stopping at the ENDB terminator, and returns them in file order.
func ScanBlocks(src source.Source, hdr Header) ([]Block, error) {
	estimate := int(src.Len() / averageBlockSize)
	if estimate < 16 {
		estimate = 16
	}
	blocks := make([]Block, 0, estimate)

	offset := int64(hdr.HeaderLen())
	layoutSize := headerLayoutSize(hdr)

	for {
		rawHeader, err := source.CheckedSlice(src, offset, offset+layoutSize, "scan_block_header")
		if err != nil {
			return nil, utils.NewError(utils.DomainParser, utils.KindInvalidData,
				"block header extends past end of source").
				WithOperation("scan_blocks").WithCause(err)
		}

		bh, err := decodeBlockHeader(rawHeader, hdr)
		if err != nil {
			return nil, err
		}

		payloadOffset := offset + layoutSize
		blocks = append(blocks, Block{
			Header:        bh,
			HeaderOffset:  offset,
			PayloadOffset: payloadOffset,
		})

		if bh.CodeString() == endBlockCode {
			break
		}

		if bh.Size > utils.MaxBlockSize {
			return nil, utils.NewError(utils.DomainParser, utils.KindSizeLimitExceeded,
				"block declares an implausible payload size").
				WithOperation("scan_blocks").WithBlock(len(blocks) - 1)
		}

		payloadEnd := payloadOffset + int64(bh.Size)
		if payloadEnd > src.Len() {
			return nil, utils.NewError(utils.DomainParser, utils.KindInvalidData,
				"block payload extends past end of source").
				WithOperation("scan_blocks").WithBlock(len(blocks) - 1)
		}

		offset = payloadEnd
	}

	return blocks, nil
}

// decodeBlockHeader parses one block header according to hdr's format
// version, with bounds checks hoisted to the caller so each field read
// here is a flat offset into an already-validated slice.
func decodeBlockHeader(raw []byte, hdr Header) (BlockHeader, error) {
	var bh BlockHeader
	order := hdr.ByteOrder

	copy(bh.Code[:], raw[0:4])

	if hdr.Version == FormatV5 {
		bh.SDNAIndex = uint32(order.Uint64(raw[4:12]))
		bh.OldAddress = order.Uint64(raw[12:20])
		bh.Size = order.Uint64(raw[20:28])
		bh.Count = uint32(order.Uint64(raw[28:32]))
		return bh, nil
	}

	bh.Size = uint64(order.Uint32(raw[4:8]))
	if hdr.PointerSize == 8 {
		bh.OldAddress = order.Uint64(raw[8:16])
		bh.SDNAIndex = order.Uint32(raw[16:20])
		bh.Count = order.Uint32(raw[20:24])
		return bh, nil
	}

	bh.OldAddress = uint64(order.Uint32(raw[8:12]))
	bh.SDNAIndex = order.Uint32(raw[12:16])
	bh.Count = order.Uint32(raw[16:20])
	return bh, nil
}

package core

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// ContentHash computes a deterministic 64-bit hash over a block's
// identity fields (sdna_index, count, size, code) and its payload bytes,
// so two blocks can be compared for equality by hash without a byte-wise
// diff on the hot path.
func ContentHash(b Block, payload []byte) uint64 {
	h := xxhash.New()

	var scratch [20]byte
	binary.LittleEndian.PutUint32(scratch[0:4], b.Header.SDNAIndex)
	binary.LittleEndian.PutUint32(scratch[4:8], b.Header.Count)
	binary.LittleEndian.PutUint64(scratch[8:16], b.Header.Size)
	copy(scratch[16:20], b.Header.Code[:])

	_, _ = h.Write(scratch[:])
	_, _ = h.Write(payload)

	return h.Sum64()
}

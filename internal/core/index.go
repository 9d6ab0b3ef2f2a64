package core

// Index holds the block-type and address indexes built after scanning,
// giving every expander O(1) lookup from an original memory address or a
// 4-byte code to the owning block's position in the block slice.
type Index struct {
	byCode    map[string][]int
	byAddress map[uint64]int
}

// BuildIndex scans blocks once and builds both indexes.
func BuildIndex(blocks []Block) *Index {
	idx := &Index{
		byCode:    make(map[string][]int, 64),
		byAddress: make(map[uint64]int, len(blocks)),
	}
	for i, b := range blocks {
		code := b.Header.CodeString()
		idx.byCode[code] = append(idx.byCode[code], i)

		if b.Header.OldAddress != 0 {
			idx.byAddress[b.Header.OldAddress] = i
		}
	}
	return idx
}

// BlocksByType returns the indices of every block with the given code.
func (idx *Index) BlocksByType(code string) []int {
	return idx.byCode[code]
}

// FindByAddress resolves an original file address to a block index. A
// zero address never resolves, matching the indexing rule that zero
// addresses are never recorded.
func (idx *Index) FindByAddress(addr uint64) (int, bool) {
	if addr == 0 {
		return 0, false
	}
	i, ok := idx.byAddress[addr]
	return i, ok
}

package utils

import (
	"fmt"
	"math"
)

// MaxArrayCount is the sanity cap on DNA-reported array element counts
// (Mesh.totcol, Object.totcol, and similar u32 count fields). Files that
// claim a count above this are treated as corrupted or struct-version
// mismatched rather than trusted verbatim.
const MaxArrayCount = 100_000_000

// MaxBlockSize limits a single block's declared payload size to 2GB,
// rejecting headers whose size field has clearly been corrupted rather
// than letting it drive an oversized allocation.
const MaxBlockSize = 2 * 1024 * 1024 * 1024

// CheckMultiplyOverflow reports whether multiplying two uint64 values would
// overflow, without performing the multiplication.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil
	}
	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}
	return nil
}

// SafeMultiply multiplies two uint64 values and returns the result if no
// overflow occurs, e.g. an array's total byte span from a DNA-reported
// element count and struct size.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// ValidateBufferSize checks that size is nonzero and within maxSize,
// returning a descriptive error otherwise.
func ValidateBufferSize(size, maxSize uint64, description string) error {
	if size == 0 {
		return fmt.Errorf("%s: size cannot be zero", description)
	}
	if size > maxSize {
		return fmt.Errorf("%s: size %d exceeds maximum %d", description, size, maxSize)
	}
	return nil
}

// ValidateArrayCount rejects a DNA array count field that exceeds
// MaxArrayCount, the signal used elsewhere to treat a block as corrupted
// rather than attempt to walk count-many nonexistent elements.
func ValidateArrayCount(count uint64, description string) error {
	if count > MaxArrayCount {
		return fmt.Errorf("%s: count %d exceeds sanity cap %d", description, count, MaxArrayCount)
	}
	return nil
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHash_DeterministicAndSensitiveToPayload(t *testing.T) {
	b := Block{Header: BlockHeader{Code: [4]byte{'O', 'B'}, SDNAIndex: 1, Count: 1, Size: 4}}
	payload := []byte{1, 2, 3, 4}

	h1 := ContentHash(b, payload)
	h2 := ContentHash(b, payload)
	assert.Equal(t, h1, h2)

	h3 := ContentHash(b, []byte{1, 2, 3, 5})
	assert.NotEqual(t, h1, h3)

	other := b
	other.Header.SDNAIndex = 2
	h4 := ContentHash(other, payload)
	assert.NotEqual(t, h1, h4)
}

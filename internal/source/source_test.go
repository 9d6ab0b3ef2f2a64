package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blendgraph/blendgraph/internal/utils"
)

func TestMemorySource_LenBytesSlice(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	s := NewMemorySource(data)

	require.Equal(t, int64(8), s.Len())
	require.Equal(t, data, s.Bytes())
	require.Equal(t, []byte{2, 3, 4}, s.Slice(2, 5))
	require.NoError(t, s.Close())
}

func TestCheckedSlice_ValidAndInvalidRanges(t *testing.T) {
	s := NewMemorySource([]byte("BLENDER-v280"))

	got, err := CheckedSlice(s, 0, 7, "read_magic")
	require.NoError(t, err)
	require.Equal(t, []byte("BLENDER"), got)

	_, err = CheckedSlice(s, 5, 3, "bad_order")
	require.Error(t, err)
	var typed *utils.Error
	require.True(t, errors.As(err, &typed))
	require.Equal(t, utils.KindInvalidRange, typed.Kind)

	_, err = CheckedSlice(s, 0, 1000, "past_end")
	require.Error(t, err)

	_, err = CheckedSlice(s, -1, 5, "negative_start")
	require.Error(t, err)
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Compression
	}{
		{name: "zstd magic", data: []byte{0x28, 0xB5, 0x2F, 0xFD, 0x00}, want: CompressionZstd},
		{name: "gzip magic", data: []byte{0x1F, 0x8B, 0x08, 0x00}, want: CompressionGzip},
		{name: "uncompressed blend header", data: []byte("BLENDER-v280"), want: CompressionNone},
		{name: "too short to match anything", data: []byte{0x28}, want: CompressionNone},
		{name: "empty", data: []byte{}, want: CompressionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Sniff(tt.data))
		})
	}
}

func TestOpen_UncompressedPassesThrough(t *testing.T) {
	raw := []byte("BLENDER-v280 rest of file")
	s, err := Open(raw, DefaultPolicy())
	require.NoError(t, err)
	require.Equal(t, int64(len(raw)), s.Len())
	require.Equal(t, raw, s.Bytes())
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, int64(256*1024*1024), p.MaxInMemoryBytes)
	require.True(t, p.PreferMmapTemp)
	require.Equal(t, "", p.TempDir)
}

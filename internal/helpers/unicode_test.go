package helpers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeUTF16LE(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{"empty", "", []byte{}},
		{"ascii", "Ab", []byte{'A', 0, 'b', 0}},
		{"non-ascii", "é", []byte{0xE9, 0x00}},
		{"surrogate pair", "😀", []byte{0x3D, 0xD8, 0x00, 0xDE}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeUTF16LE(tt.input)
			assert.Equal(t, len(tt.expected), len(got))
			if len(tt.expected) > 0 {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestDecodeUTF16LE(t *testing.T) {
	s, err := DecodeUTF16LE([]byte{'R', 0, 'o', 0, 0, 0, 'x', 0})
	require.NoError(t, err)
	assert.Equal(t, "Ro", s)

	s, err = DecodeUTF16LE(EncodeUTF16LE("Root Entry"))
	require.NoError(t, err)
	assert.Equal(t, "Root Entry", s)

	s, err = DecodeUTF16LE([]byte{'a', 0, 'b'})
	require.NoError(t, err)
	assert.Equal(t, "a", s)
}

func TestUTF16Length(t *testing.T) {
	assert.Equal(t, 0, UTF16Length(""))
	assert.Equal(t, 11, UTF16Length("\x06DataSpaces"))
	assert.Equal(t, 2, UTF16Length("😀"))
}

func TestUnicodeLPP4(t *testing.T) {
	t.Run("padded", func(t *testing.T) {
		buf := AppendUnicodeLPP4(nil, "abc")
		// 4 byte length, 6 bytes of characters, 2 bytes of padding
		assert.Len(t, buf, 12)
		assert.Equal(t, []byte{6, 0, 0, 0}, buf[:4])

		s, n, err := ReadUnicodeLPP4(buf)
		require.NoError(t, err)
		assert.Equal(t, "abc", s)
		assert.Equal(t, 12, n)
	})

	t.Run("aligned", func(t *testing.T) {
		buf := AppendUnicodeLPP4([]byte{0xAA}, "ab")
		assert.Len(t, buf, 9)

		s, n, err := ReadUnicodeLPP4(buf[1:])
		require.NoError(t, err)
		assert.Equal(t, "ab", s)
		assert.Equal(t, 8, n)
	})

	t.Run("errors", func(t *testing.T) {
		_, _, err := ReadUnicodeLPP4([]byte{1, 0})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient data")

		_, _, err = ReadUnicodeLPP4([]byte{0x10, 0, 0, 0, 'a', 0})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid length")
	})
}

func TestGUIDRoundTrip(t *testing.T) {
	id := uuid.MustParse("{FF9A3F03-56EF-4613-BDD5-5A41C1D07246}")
	raw := GUIDToBytes(id)

	assert.Equal(t, []byte{0x03, 0x3F, 0x9A, 0xFF, 0xEF, 0x56, 0x13, 0x46, 0xBD, 0xD5}, raw[:10])
	assert.Equal(t, id, GUIDFromBytes(raw))
}

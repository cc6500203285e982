package charset

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDetectEncoding tests encoding detection across input variants
func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name     string
		content  []byte
		expected Encoding
	}{
		{
			name:     "UTF-8 BOM",
			content:  []byte{0xEF, 0xBB, 0xBF, 'H', 'e', 'l', 'l', 'o'},
			expected: EncodingUTF8,
		},
		{
			name:     "Plain ASCII",
			content:  []byte("Hello, World!"),
			expected: EncodingUTF8,
		},
		{
			name:     "Valid UTF-8 diacritics",
			content:  []byte("Šibenik, Čakovec, Đakovo"),
			expected: EncodingUTF8,
		},
		{
			name:     "Windows-1250 diacritics",
			content:  []byte{0x8A, 0x9A, 0xD0, 0xF0}, // Š, š, Đ, đ
			expected: EncodingWindows1250,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectEncoding(tt.content))
		})
	}
}

// TestDecodeWindows1250 tests the Croatian diacritic mapping
func TestDecodeWindows1250(t *testing.T) {
	content := []byte{'Z', 'a', 'g', 'r', 'e', 'b', ' ', 0x8A, 0x9A, 0xC8, 0xE8, 0xC6, 0xE6, 0x8E, 0x9E, 0xD0, 0xF0}

	decoded, err := Decode(content, EncodingWindows1250)
	require.NoError(t, err)
	assert.Equal(t, "Zagreb ŠšČčĆćŽžĐđ", decoded)
}

// TestDecodeUTF8Passthrough tests that UTF-8 content passes through unchanged
func TestDecodeUTF8Passthrough(t *testing.T) {
	decoded, err := Decode([]byte("Ljubljanski grad"), EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, "Ljubljanski grad", decoded)
}

// TestDecodeISO88592 tests the ISO-8859-2 decoder path
func TestDecodeISO88592(t *testing.T) {
	// 0xB9 is š, 0xE8 is č in ISO-8859-2
	decoded, err := Decode([]byte{0xB9, 0xE8}, EncodingISO88592)
	require.NoError(t, err)
	assert.Equal(t, "šč", decoded)
}

// TestToUTF8Reader tests streaming conversion
func TestToUTF8Reader(t *testing.T) {
	reader, err := ToUTF8Reader(strings.NewReader(string([]byte{0x8A, 'i', 'b', 'e', 'n', 'i', 'k'})), EncodingWindows1250)
	require.NoError(t, err)

	out, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "Šibenik", string(out))
}

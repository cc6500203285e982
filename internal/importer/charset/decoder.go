package charset

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Windows-1250 byte mappings for the Central European diacritics that show
// up in municipal open-data exports
var windows1250Chars = map[byte]rune{
	0x8A: 'Š', // Latin capital letter S with caron
	0x9A: 'š', // Latin small letter s with caron
	0xD0: 'Đ', // Latin capital letter D with stroke
	0xF0: 'đ', // Latin small letter d with stroke
	0xC8: 'Č', // Latin capital letter C with caron
	0xE8: 'č', // Latin small letter c with caron
	0x8E: 'Ž', // Latin capital letter Z with caron
	0x9E: 'ž', // Latin small letter z with caron
	0xC6: 'Ć', // Latin capital letter C with acute
	0xE6: 'ć', // Latin small letter c with acute
}

// Encoding represents a text encoding
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1250 Encoding = "windows-1250"
	EncodingISO88592    Encoding = "iso-8859-2"
)

// DetectEncoding detects the encoding of a byte buffer
func DetectEncoding(data []byte) Encoding {
	// Check for UTF-8 BOM
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return EncodingUTF8
	}

	// Valid UTF-8 stays UTF-8, even when the byte values overlap with
	// Windows-1250 diacritics: the multibyte sequences would not validate
	// otherwise
	if utf8.Valid(data) {
		return EncodingUTF8
	}

	// Not valid UTF-8, assume Windows-1250
	return EncodingWindows1250
}

// Decode converts a byte buffer from the specified encoding to a UTF-8 string
func Decode(data []byte, enc Encoding) (string, error) {
	switch enc {
	case EncodingISO88592:
		return decodeISO88592(data)
	case EncodingUTF8, EncodingWindows1250, "":
		// Sources sometimes declare windows-1250 for files that are
		// actually UTF-8; a validity check beats trusting the declaration
		if utf8.Valid(data) {
			return string(data), nil
		}
		return decodeWindows1250(data)
	}
	return string(data), nil
}

// decodeWindows1250 decodes Windows-1250 encoded bytes to UTF-8
func decodeWindows1250(data []byte) (string, error) {
	// Windows-1252 lacks several of the needed characters, so the mapping
	// table handles them and everything else passes through
	result := make([]byte, len(data)*4) // Worst case: 4 bytes per rune
	out := 0

	for _, b := range data {
		if r, ok := windows1250Chars[b]; ok {
			n := utf8.EncodeRune(result[out:], r)
			out += n
		} else {
			result[out] = b
			out++
		}
	}

	return string(result[:out]), nil
}

// decodeISO88592 decodes ISO-8859-2 encoded bytes to UTF-8
func decodeISO88592(data []byte) (string, error) {
	decoder := charmap.ISO8859_2.NewDecoder()
	reader := transform.NewReader(strings.NewReader(string(data)), decoder)
	result, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// ToUTF8Reader wraps a reader with a decoder to convert to UTF-8
func ToUTF8Reader(r io.Reader, enc Encoding) (io.Reader, error) {
	var decoder encoding.Encoding

	switch enc {
	case EncodingWindows1250:
		decoder = charmap.Windows1252
	case EncodingISO88592:
		decoder = charmap.ISO8859_2
	default:
		return r, nil
	}

	return transform.NewReader(r, decoder.NewDecoder()), nil
}

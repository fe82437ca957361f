package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	encodingUTF8    = "utf-8"
	encodingUTF8BOM = "utf-8-bom"
	encodingUTF16LE = "utf-16le"
	encodingUTF16BE = "utf-16be"
)

var singleByteEncodings = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"windows-1251": charmap.Windows1251,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
}

// trimPartialRune drops a multibyte sequence cut off at the end of a
// truncated sample, so a valid UTF-8 file whose rune straddles the sample
// boundary still passes the UTF-8 check. Only a plausibly truncated
// sequence is dropped; genuinely invalid bytes stay and fail validation.
func trimPartialRune(sample []byte) []byte {
	for back := 1; back <= utf8.UTFMax-1 && back <= len(sample); back++ {
		b := sample[len(sample)-back]

		// continuation byte, keep backing up to the start byte
		if b&0xC0 == 0x80 {
			continue
		}

		if expected := runeLen(b); expected > back {
			return sample[:len(sample)-back]
		}

		break
	}

	return sample
}

// runeLen returns the encoded length a UTF-8 start byte announces, or 0 for
// a byte that cannot start a rune.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 0
	}
}

// detectEncoding classifies the leading bytes of a file: BOM variants first,
// then plain UTF-8, then the configured single-byte fallback. Binary-looking
// content is rejected rather than guessed at.
func detectEncoding(sample []byte, fallback string) (string, error) {
	switch {
	case bytes.HasPrefix(sample, []byte{0xEF, 0xBB, 0xBF}):
		return encodingUTF8BOM, nil
	case bytes.HasPrefix(sample, []byte{0xFF, 0xFE}):
		return encodingUTF16LE, nil
	case bytes.HasPrefix(sample, []byte{0xFE, 0xFF}):
		return encodingUTF16BE, nil
	}

	if utf8.Valid(sample) {
		return encodingUTF8, nil
	}

	if bytes.IndexByte(sample, 0x00) >= 0 {
		return "", fmt.Errorf("content looks binary, not text")
	}

	if _, ok := singleByteEncodings[fallback]; !ok {
		return "", fmt.Errorf("not valid utf-8 and no usable fallback encoding %q", fallback)
	}

	return fallback, nil
}

// decodeReader wraps r so it yields UTF-8 regardless of the source encoding.
func decodeReader(r io.Reader, encodingName string) (io.Reader, error) {
	var enc encoding.Encoding

	switch encodingName {
	case encodingUTF8:
		return r, nil
	case encodingUTF8BOM:
		enc = unicode.UTF8BOM
	case encodingUTF16LE:
		enc = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case encodingUTF16BE:
		enc = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	default:
		var ok bool
		if enc, ok = singleByteEncodings[encodingName]; !ok {
			return nil, fmt.Errorf("unknown encoding %q", encodingName)
		}
	}

	return enc.NewDecoder().Reader(r), nil
}

package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText sniffs the byte-order mark or NUL layout, decodes to UTF-8 and
// strips NUL bytes.
func decodeText(data []byte) string {
	var dec *encoding.Decoder
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]
	case bytes.HasPrefix(data, bomUTF16LE):
		dec = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	case bytes.HasPrefix(data, bomUTF16BE):
		dec = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	default:
		switch sniffUTF16(data) {
		case "le":
			dec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		case "be":
			dec = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		}
	}

	if dec == nil && !utf8.Valid(data) {
		// Legacy single-byte exports are far more common than anything else.
		dec = charmap.Windows1252.NewDecoder()
	}

	out := data
	if dec != nil {
		decoded, err := dec.Bytes(data)
		if err != nil {
			return ""
		}
		out = decoded
	}

	text := strings.ReplaceAll(string(out), "\x00", "")
	text = strings.ToValidUTF8(text, "")
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// sniffUTF16 detects BOM-less UTF-16 by where NUL bytes fall in a sample:
// ASCII-heavy UTF-16LE text has NULs at odd offsets, UTF-16BE at even ones.
func sniffUTF16(data []byte) string {
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if len(sample) < 4 {
		return ""
	}
	var evenNUL, oddNUL int
	for i, b := range sample {
		if b != 0 {
			continue
		}
		if i%2 == 0 {
			evenNUL++
		} else {
			oddNUL++
		}
	}
	half := len(sample) / 2
	switch {
	case oddNUL*10 >= half*4 && evenNUL*10 < half:
		return "le"
	case evenNUL*10 >= half*4 && oddNUL*10 < half:
		return "be"
	}
	return ""
}

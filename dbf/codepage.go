package dbf

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeField runs the codepage cascade described for legacy Thai karaoke
// catalogs: TIS-620, then CP874, then UTF-8, then Latin-1. The first
// decoder that accepts the bytes without error wins; ASCII whitespace is
// stripped from the result. If every decoder rejects the bytes (only
// possible if the TIS-620/CP874 fast paths above misbehave, since Latin-1
// never errors), the empty string is returned.
func DecodeField(raw []byte) string {
	raw = stripNulls(raw)
	if s, ok := decodeTIS620(raw); ok {
		return trimField(s)
	}
	if s, ok := decodeCP874(raw); ok {
		return trimField(s)
	}
	if utf8.Valid(raw) {
		return trimField(string(raw))
	}
	if s, ok := decodeLatin1(raw); ok {
		return trimField(s)
	}
	return ""
}

func trimField(s string) string {
	return strings.Trim(s, " \t\r\n\x00")
}

// decodeTIS620 maps TIS-620 bytes to Thai-block Unicode code points.
// Bytes 0x00-0x7F are ASCII. Bytes 0xA1-0xDA and 0xDF-0xFB map onto
// U+0E01-U+0E3A and U+0E3F-U+0E5B respectively; everything else in the
// high range is unassigned in TIS-620 and causes the decoder to reject
// the buffer so the cascade can fall through to CP874.
func decodeTIS620(raw []byte) (string, bool) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		switch {
		case c < 0x80:
			b.WriteByte(c)
		case c >= 0xA1 && c <= 0xDA:
			b.WriteRune(rune(0x0E01 + int(c) - 0xA1))
		case c >= 0xDF && c <= 0xFB:
			b.WriteRune(rune(0x0E3F + int(c) - 0xDF))
		default:
			return "", false
		}
	}
	return b.String(), true
}

// decodeCP874 decodes raw as Windows-874. The charmap decoder never errors
// outright (undefined bytes decode to the Unicode replacement character),
// so a buffer containing any reserved/unassigned byte is treated as a
// rejection and the cascade falls through to UTF-8 and then Latin-1.
func decodeCP874(raw []byte) (string, bool) {
	dec := charmap.Windows874.NewDecoder()
	out, err := dec.Bytes(raw)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// decodeLatin1 decodes raw as ISO-8859-1, which defines every byte value
// 0x00-0xFF, making it the guaranteed-success final rung of the cascade.
func decodeLatin1(raw []byte) (string, bool) {
	dec := charmap.ISO8859_1.NewDecoder()
	out, err := dec.Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// stripNulls removes trailing NUL padding some legacy writers leave in
// fixed-width fields before the codepage cascade ever sees the bytes.
func stripNulls(raw []byte) []byte {
	return bytes.TrimRight(raw, "\x00")
}

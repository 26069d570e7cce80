package dbf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeFieldASCII(t *testing.T) {
	require.Equal(t, "Hello World", DecodeField([]byte("  Hello World  \x00\x00")))
}

func TestDecodeFieldTIS620Thai(t *testing.T) {
	// 0xA1 is the first assigned TIS-620 byte, mapping to U+0E01 (ko kai).
	raw := []byte{0xA1, 0xA2, 0xA3}
	got := DecodeField(raw)
	require.Equal(t, "กขฃ", got)
}

func TestDecodeFieldEmptyOnAllNulls(t *testing.T) {
	require.Equal(t, "", DecodeField([]byte{0x00, 0x00, 0x00}))
}

func TestDecodeFieldFallsBackToLatin1(t *testing.T) {
	// 0xFF is unassigned in TIS-620, invalid in CP874's reserved gaps, and
	// not valid standalone UTF-8, so it should fall through to Latin-1.
	got := DecodeField([]byte{0xFF})
	require.Equal(t, "ÿ", got)
}

package dbf

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildDBF assembles a minimal in-memory DBF buffer with the given fields
// and record rows (each row is the concatenated raw field bytes, each value
// already padded to its field's declared length).
func buildDBF(t *testing.T, fields []FieldDescriptor, rows [][]byte) []byte {
	t.Helper()

	headerLen := 32 + 32*len(fields) + 1
	recordLen := 1
	for _, f := range fields {
		recordLen += f.Length
	}

	buf := make([]byte, headerLen+recordLen*len(rows))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(rows)))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(headerLen))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(recordLen))

	for i, f := range fields {
		start := 32 + i*32
		copy(buf[start:start+11], []byte(f.Name))
		buf[start+11] = f.Kind
		buf[start+16] = byte(f.Length)
	}
	buf[headerLen-1] = 0x0D // header terminator byte

	for i, row := range rows {
		off := headerLen + i*recordLen
		copy(buf[off+1:off+recordLen], row)
	}

	return buf
}

func TestParseHeaderRejectsShortBuffer(t *testing.T) {
	_, err := ParseHeader(make([]byte, 10))
	require.Error(t, err)
}

func TestParseHeaderGeometry(t *testing.T) {
	fields := []FieldDescriptor{
		{Name: "TITLE", Kind: 'C', Length: 10},
		{Name: "ARTIST", Kind: 'C', Length: 8},
	}
	buf := buildDBF(t, fields, nil)

	h, err := ParseHeader(buf)
	require.NoError(t, err)
	require.Equal(t, uint16(32+32*2+1), h.HeaderLength)
	require.Equal(t, uint16(1+10+8), h.RecordLength)
	require.Len(t, h.Fields, 2)
	require.Equal(t, "TITLE", h.Fields[0].Name)
	require.Equal(t, 10, h.Fields[0].Length)
}

func TestParseHeaderTruncatesFieldTableAtBufferEnd(t *testing.T) {
	fields := []FieldDescriptor{
		{Name: "TITLE", Kind: 'C', Length: 10},
		{Name: "ARTIST", Kind: 'C', Length: 8},
	}
	buf := buildDBF(t, fields, nil)
	// Cut the buffer so only the first field descriptor is fully present.
	buf = buf[:32+32+10]

	h, err := ParseHeader(buf)
	require.NoError(t, err)
	require.Len(t, h.Fields, 1)
}

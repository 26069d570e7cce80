// Package dbf decodes the dBASE-III style fixed-length record file used by
// the legacy karaoke catalog.
package dbf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rpcpool/karaoke-archivist/kerr"
)

const (
	headerFixedSize  = 32
	fieldDescSize    = 32
	fieldNameMaxLen  = 11
	fieldKindOffset  = 11
	fieldLengthOffs  = 16
	recordDeleteFlag = 0x2A // '*'
)

// FieldDescriptor describes one fixed-width field of every record.
// Immutable once the header has been parsed.
type FieldDescriptor struct {
	Name   string
	Kind   byte
	Length int
}

// Header is the parsed file header: the record count, the geometry needed
// to locate records, and the ordered field layout.
type Header struct {
	RecordCount  uint32
	HeaderLength uint16
	RecordLength uint16
	Fields       []FieldDescriptor
}

// ParseHeader reads the fixed header and field descriptor table from buf.
// It returns an error only when buf is too short to hold a header or the
// declared header length is too small to hold the terminator byte; a field
// descriptor that would overrun buf simply truncates the field list.
func ParseHeader(buf []byte) (*Header, error) {
	if len(buf) < headerFixedSize {
		return nil, fmt.Errorf("%w: buffer of %d bytes is shorter than the %d-byte header", kerr.ErrHeaderMalformed, len(buf), headerFixedSize)
	}

	h := &Header{
		RecordCount:  binary.LittleEndian.Uint32(buf[4:8]),
		HeaderLength: binary.LittleEndian.Uint16(buf[8:10]),
		RecordLength: binary.LittleEndian.Uint16(buf[10:12]),
	}

	if h.HeaderLength < headerFixedSize+1 {
		return nil, fmt.Errorf("%w: header_length %d is too small to hold even the terminator byte", kerr.ErrHeaderMalformed, h.HeaderLength)
	}

	fieldCount := (int(h.HeaderLength) - 33) / fieldDescSize
	h.Fields = make([]FieldDescriptor, 0, fieldCount)

	for i := 0; i < fieldCount; i++ {
		start := headerFixedSize + i*fieldDescSize
		end := start + fieldDescSize
		if end > len(buf) {
			break
		}
		raw := buf[start:end]
		name := string(bytes.TrimRight(raw[:fieldNameMaxLen], "\x00"))
		h.Fields = append(h.Fields, FieldDescriptor{
			Name:   name,
			Kind:   raw[fieldKindOffset],
			Length: int(raw[fieldLengthOffs]),
		})
	}

	return h, nil
}

// recordOffset returns the file offset of record i.
func (h *Header) recordOffset(i int) int64 {
	return int64(h.HeaderLength) + int64(i)*int64(h.RecordLength)
}

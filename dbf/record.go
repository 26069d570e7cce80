package dbf

import (
	"fmt"

	"github.com/rpcpool/karaoke-archivist/kerr"
)

// RawRecord is one undeleted record, still holding undecoded field bytes.
// Fields are looked up by the name declared in the header's field
// descriptor table.
type RawRecord struct {
	Index  int
	Fields map[string][]byte
}

// ReadRecords walks every record slot described by h against buf, skipping
// deleted records, and returns the undeleted ones in file order. Iteration
// stops as soon as a record slot would overrun buf; records already
// produced remain valid, and a wrapped ErrRecordTruncated reports how far
// iteration got so callers can log it and continue.
func ReadRecords(buf []byte, h *Header) ([]RawRecord, error) {
	out := make([]RawRecord, 0, h.RecordCount)

	for i := 0; i < int(h.RecordCount); i++ {
		offset := h.recordOffset(i)
		end := offset + int64(h.RecordLength)
		if offset < 0 || end > int64(len(buf)) {
			return out, fmt.Errorf("%w: record %d of %d overruns the %d-byte buffer", kerr.ErrRecordTruncated, i, h.RecordCount, len(buf))
		}

		if buf[offset] == recordDeleteFlag {
			continue
		}

		fieldStart := offset + 1
		fields := make(map[string][]byte, len(h.Fields))
		cursor := fieldStart
		for _, fd := range h.Fields {
			fEnd := cursor + int64(fd.Length)
			if fEnd > end {
				break
			}
			fields[fd.Name] = buf[cursor:fEnd]
			cursor = fEnd
		}

		out = append(out, RawRecord{Index: i, Fields: fields})
	}

	return out, nil
}

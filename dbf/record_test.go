package dbf

import (
	"testing"

	"github.com/rpcpool/karaoke-archivist/kerr"
	"github.com/stretchr/testify/require"
)

func TestReadRecordsSkipsDeleted(t *testing.T) {
	fields := []FieldDescriptor{
		{Name: "TITLE", Kind: 'C', Length: 4},
	}
	rows := [][]byte{
		[]byte("aaaa"),
		[]byte("bbbb"),
		[]byte("cccc"),
	}
	buf := buildDBF(t, fields, rows)

	// Mark record index 1 (the second record) as deleted.
	h, err := ParseHeader(buf)
	require.NoError(t, err)
	buf[h.recordOffset(1)] = recordDeleteFlag

	recs, err := ReadRecords(buf, h)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, 0, recs[0].Index)
	require.Equal(t, 2, recs[1].Index)
	require.Equal(t, []byte("aaaa"), recs[0].Fields["TITLE"])
	require.Equal(t, []byte("cccc"), recs[1].Fields["TITLE"])
}

func TestReadRecordsStopsCleanlyOnOverrun(t *testing.T) {
	fields := []FieldDescriptor{
		{Name: "TITLE", Kind: 'C', Length: 4},
	}
	rows := [][]byte{
		[]byte("aaaa"),
		[]byte("bbbb"),
	}
	buf := buildDBF(t, fields, rows)
	h, err := ParseHeader(buf)
	require.NoError(t, err)

	// Claim a record count larger than the buffer actually holds.
	h.RecordCount = 10

	recs, err := ReadRecords(buf, h)
	require.ErrorIs(t, err, kerr.ErrRecordTruncated)
	require.Len(t, recs, 2)
}

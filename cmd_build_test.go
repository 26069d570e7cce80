package main

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTestDBF assembles a minimal dBASE-III file with the TITLE, ARTIST,
// CODE, TYPE and SUB_TYPE fields this pipeline reads, holding one EMK
// track.
func writeTestDBF(t *testing.T, path string) {
	t.Helper()

	fields := []struct {
		name   string
		length int
	}{
		{"TITLE", 20},
		{"ARTIST", 20},
		{"CODE", 8},
		{"TYPE", 4},
		{"SUB_TYPE", 3},
	}

	recordLen := 1
	for _, f := range fields {
		recordLen += f.length
	}
	headerLen := 32 + 32*len(fields) + 1

	row := make([]byte, recordLen-1)
	putField := func(off int, length int, v string) {
		copy(row[off:off+length], v)
	}
	offset := 0
	putField(offset, 20, "Test Song")
	offset += 20
	putField(offset, 20, "Test Artist")
	offset += 20
	putField(offset, 8, "SONG0001")
	offset += 8
	putField(offset, 4, "POP")
	offset += 4
	putField(offset, 3, "EMK")

	buf := make([]byte, headerLen+recordLen)
	binary.LittleEndian.PutUint32(buf[4:8], 1)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(headerLen))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(recordLen))
	for i, f := range fields {
		start := 32 + i*32
		copy(buf[start:start+11], []byte(f.name))
		buf[start+11] = 'C'
		buf[start+16] = byte(f.length)
	}
	buf[headerLen-1] = 0x0D
	copy(buf[headerLen+1:], row)

	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func TestRunBuildEndToEnd(t *testing.T) {
	inputRoot := t.TempDir()
	outputRoot := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(inputRoot, "Data"), 0o755))
	writeTestDBF(t, filepath.Join(inputRoot, "Data", "SONG.DBF"))

	emkDir := filepath.Join(inputRoot, "Songs", "POP", "EMK")
	require.NoError(t, os.MkdirAll(emkDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(emkDir, "SONG0001.emk"), []byte("fake-emk-bytes"), 0o644))

	cfgPath := filepath.Join(inputRoot, "config.json")
	cfgBody := `{
		"input_root": "` + inputRoot + `",
		"output_root": "` + outputRoot + `",
		"batch_size": 10,
		"large_zip_limit_mb": 50,
		"create_zips": true,
		"create_index_zip": true,
		"max_workers": 2
	}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgBody), 0o644))

	require.NoError(t, runBuild(context.Background(), cfgPath))

	require.FileExists(t, filepath.Join(outputRoot, "Data", "master_index.json"))
	require.FileExists(t, filepath.Join(outputRoot, "index.zip"))
	require.FileExists(t, filepath.Join(outputRoot, "karaoke_0.zip"))
	require.FileExists(t, filepath.Join(outputRoot, "archive_manifest.json"))
	require.NoFileExists(t, filepath.Join(outputRoot, "0.zip"), "batch file should be folded into the super-archive and removed")
}

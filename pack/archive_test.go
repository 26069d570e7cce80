package pack

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeBatchFile(t *testing.T, dir string, superIdx int, size int64) BatchFile {
	t.Helper()
	path := filepath.Join(dir, strconv.Itoa(superIdx)+".zip")
	zw, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(zw)
	// Stored, not deflated, so the file size tracks the payload size the
	// way pack's own zip.Store batch archives do.
	fw, err := w.CreateHeader(&zip.FileHeader{Name: "payload", Method: zip.Store})
	require.NoError(t, err)
	_, err = fw.Write(make([]byte, size))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return BatchFile{SuperIndex: superIdx, Path: path, Size: info.Size()}
}

func TestBuildSuperArchivesRollsOverByLimit(t *testing.T) {
	dir := t.TempDir()
	b0 := writeBatchFile(t, dir, 0, 4000)
	b1 := writeBatchFile(t, dir, 1, 4000)
	b2 := writeBatchFile(t, dir, 2, 4000)

	supers, err := BuildSuperArchives(dir, []BatchFile{b0, b1, b2}, 9000)
	require.NoError(t, err)
	require.Len(t, supers, 2)
	require.Equal(t, []int{0, 1}, supers[0].Batches)
	require.Equal(t, []int{2}, supers[1].Batches)

	require.FileExists(t, filepath.Join(dir, "karaoke_0.zip"))
	require.FileExists(t, filepath.Join(dir, "karaoke_1.zip"))
	require.NoFileExists(t, b0.Path)
	require.NoFileExists(t, b1.Path)
	require.NoFileExists(t, b2.Path)
}

func TestBuildSuperArchivesOversizedBatchAlone(t *testing.T) {
	dir := t.TempDir()
	big := writeBatchFile(t, dir, 0, 20000)
	small := writeBatchFile(t, dir, 1, 100)

	supers, err := BuildSuperArchives(dir, []BatchFile{big, small}, 9000)
	require.NoError(t, err)
	require.Len(t, supers, 2)
	require.Equal(t, []int{0}, supers[0].Batches)
	require.Equal(t, []int{1}, supers[1].Batches)
}

func TestWriteManifestMapsBatchesToSuperArchives(t *testing.T) {
	dir := t.TempDir()
	b0 := writeBatchFile(t, dir, 0, 4000)
	b1 := writeBatchFile(t, dir, 1, 4000)
	b2 := writeBatchFile(t, dir, 2, 4000)

	supers, err := BuildSuperArchives(dir, []BatchFile{b0, b1, b2}, 9000)
	require.NoError(t, err)

	require.NoError(t, WriteManifest(dir, supers))

	raw, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"0":0`)
	require.Contains(t, string(raw), `"1":0`)
	require.Contains(t, string(raw), `"2":1`)
}

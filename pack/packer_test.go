package pack

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpcpool/karaoke-archivist/assets"
	"github.com/rpcpool/karaoke-archivist/dbf"
	"github.com/stretchr/testify/require"
)

func ncnTrack() dbf.Track {
	return dbf.Track{SubType: dbf.SubTypeNCN}
}

func ncnBundle() *assets.Bundle {
	return &assets.Bundle{
		SubType: dbf.SubTypeNCN,
		Midi:    []byte("midi-bytes-------------------------"),
		Lyr:     []byte("lyr-bytes"),
		Cur:     []byte("cur-bytes"),
	}
}

func TestPackerRejectsUnresolvableBundle(t *testing.T) {
	p := New(Config{OutputRoot: t.TempDir(), BatchSize: 10, LargeZipLimitBytes: 1 << 20, CreateZips: true})
	_, ok, err := p.Accept(ncnTrack(), &assets.Bundle{SubType: dbf.SubTypeNCN})
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, p.Accepted())
}

func TestPackerBatchRolloverBySize(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{OutputRoot: dir, BatchSize: 2, LargeZipLimitBytes: 10 << 20, CreateZips: true})

	for i := 0; i < 3; i++ {
		_, ok, err := p.Accept(ncnTrack(), ncnBundle())
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, p.Finish())

	accepted := p.Accepted()
	require.Len(t, accepted, 3)
	require.Equal(t, 0, *accepted[0].OriginalIndex)
	require.Equal(t, 1, *accepted[1].OriginalIndex)
	require.Equal(t, 2, *accepted[2].OriginalIndex)
	require.Equal(t, 0, *accepted[0].SuperIndex)
	require.Equal(t, 0, *accepted[1].SuperIndex)
	require.Equal(t, 1, *accepted[2].SuperIndex)

	batches := p.Batches()
	require.Len(t, batches, 2)
	require.FileExists(t, filepath.Join(dir, "0.zip"))
	require.FileExists(t, filepath.Join(dir, "1.zip"))

	zr, err := zip.OpenReader(filepath.Join(dir, "0.zip"))
	require.NoError(t, err)
	defer zr.Close()
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	require.ElementsMatch(t, []string{"0.zip", "1.zip"}, names)
}

func TestPackerSkipsArchiveWriteWhenDisabled(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{OutputRoot: dir, BatchSize: 10, LargeZipLimitBytes: 10 << 20, CreateZips: false})
	_, ok, err := p.Accept(ncnTrack(), ncnBundle())
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, p.Finish())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.Len(t, p.Accepted(), 1)
}

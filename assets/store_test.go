package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpcpool/karaoke-archivist/dbf"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestFilesystemStoreEMKSharded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Songs", "THAI", "EMK", "A", "ABC123.emk"), []byte("emk-bytes"))

	s := NewFilesystemStore(root)
	b, err := s.Fetch(context.Background(), dbf.Track{Type: "THAI", SubType: dbf.SubTypeEMK, Code: "ABC123"})
	require.NoError(t, err)
	require.True(t, b.Resolvable())
	require.Equal(t, []byte("emk-bytes"), b.EMK)
}

func TestFilesystemStoreEMKFallsBackToFlat(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Songs", "THAI", "EMK", "ABC123.emk"), []byte("emk-bytes"))

	s := NewFilesystemStore(root)
	b, err := s.Fetch(context.Background(), dbf.Track{Type: "THAI", SubType: dbf.SubTypeEMK, Code: "ABC123"})
	require.NoError(t, err)
	require.True(t, b.Resolvable())
}

func TestFilesystemStoreNCNRequiresAllThree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Songs", "THAI", "NCN", "Song", "A", "ABC123.mid"), []byte("midi"))
	writeFile(t, filepath.Join(root, "Songs", "THAI", "NCN", "Lyrics", "A", "ABC123.lyr"), []byte("lyr"))
	// Cursor asset missing.

	s := NewFilesystemStore(root)
	b, err := s.Fetch(context.Background(), dbf.Track{Type: "THAI", SubType: dbf.SubTypeNCN, Code: "ABC123"})
	require.NoError(t, err)
	require.False(t, b.Resolvable())

	writeFile(t, filepath.Join(root, "Songs", "THAI", "NCN", "Cursor", "A", "ABC123.cur"), []byte("cur"))
	b, err = s.Fetch(context.Background(), dbf.Track{Type: "THAI", SubType: dbf.SubTypeNCN, Code: "ABC123"})
	require.NoError(t, err)
	require.True(t, b.Resolvable())
}

func TestFilesystemStoreUnresolvedIsNotAnError(t *testing.T) {
	root := t.TempDir()
	s := NewFilesystemStore(root)
	b, err := s.Fetch(context.Background(), dbf.Track{Type: "THAI", SubType: dbf.SubTypeEMK, Code: "NOPE"})
	require.NoError(t, err)
	require.False(t, b.Resolvable())
}

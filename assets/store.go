package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rpcpool/karaoke-archivist/dbf"
	"github.com/rpcpool/karaoke-archivist/telemetry"
)

// Store resolves a track descriptor to its song asset bundle under a
// catalog root laid out as Songs/<TYPE>/EMK/... and Songs/<TYPE>/NCN/....
type Store interface {
	Fetch(ctx context.Context, t dbf.Track) (*Bundle, error)
}

// FilesystemStore implements Store against a catalog directory tree copied
// verbatim from the legacy karaoke media, per the resolution rule: try the
// sharded path under Songs/<TYPE>/<KIND>/<F>/... first, falling back to the
// unsharded path Songs/<TYPE>/<KIND>/... when the sharded file is absent.
type FilesystemStore struct {
	Root string
}

func NewFilesystemStore(root string) *FilesystemStore {
	return &FilesystemStore{Root: root}
}

// Fetch never returns an error for a track whose assets simply don't exist;
// it returns a Bundle with Resolvable() == false. Errors are reserved for
// I/O failures other than "file not found".
func (s *FilesystemStore) Fetch(ctx context.Context, t dbf.Track) (*Bundle, error) {
	if t.Code == "" {
		return &Bundle{SubType: t.SubType}, nil
	}
	shard := string(t.Code[0])

	switch t.SubType {
	case dbf.SubTypeEMK:
		kindDir := filepath.Join(s.Root, "Songs", t.Type, "EMK")
		data, err := readCandidates(ctx, kindDir, shard, t.Code+".emk")
		if err != nil {
			return nil, err
		}
		return &Bundle{SubType: dbf.SubTypeEMK, EMK: data}, nil

	case dbf.SubTypeNCN:
		ncnDir := filepath.Join(s.Root, "Songs", t.Type, "NCN")
		midi, err := readCandidates(ctx, filepath.Join(ncnDir, "Song"), shard, t.Code+".mid")
		if err != nil {
			return nil, err
		}
		lyr, err := readCandidates(ctx, filepath.Join(ncnDir, "Lyrics"), shard, t.Code+".lyr")
		if err != nil {
			return nil, err
		}
		cur, err := readCandidates(ctx, filepath.Join(ncnDir, "Cursor"), shard, t.Code+".cur")
		if err != nil {
			return nil, err
		}
		return &Bundle{SubType: dbf.SubTypeNCN, Midi: midi, Lyr: lyr, Cur: cur}, nil

	default:
		return &Bundle{SubType: t.SubType}, nil
	}
}

// readCandidates tries base/shard/name, then base/name, returning nil bytes
// (no error) if neither candidate exists.
func readCandidates(ctx context.Context, base, shard, name string) ([]byte, error) {
	_, span := telemetry.StartDiskIOSpan(ctx, "read", map[string]string{"base": base, "name": name})
	defer span.End()

	sharded := filepath.Join(base, shard, name)
	data, err := os.ReadFile(sharded)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", sharded, err)
	}

	flat := filepath.Join(base, name)
	data, err = os.ReadFile(flat)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", flat, err)
	}
	return nil, nil
}

package query

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/rpcpool/karaoke-archivist/kerr"
	"github.com/rpcpool/karaoke-archivist/pack"
)

// Blob is a retrieved song asset bundle, ready to stream back over HTTP.
type Blob struct {
	Data  []byte
	IsZip bool // true for NCN (application/zip), false for EMK (application/octet-stream)
	Ext   string
}

// RetrieveBlob answers (super_index, original_index) by locating the
// batch archive <super_index>.zip and returning the entry
// <original_index>.zip (NCN) or <original_index>.emk (EMK). The batch
// archive is opened directly under
// archiveRoot when present there, falling back to the karaoke_<k>.zip
// super-archive it was folded into, per pack.ManifestFileName.
func RetrieveBlob(archiveRoot string, superIndex, originalIndex int) (*Blob, error) {
	batchName := fmt.Sprintf("%d.zip", superIndex)

	batchBytes, err := openBatchArchive(archiveRoot, superIndex, batchName)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(batchBytes), int64(len(batchBytes)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerr.ErrBlobNotFound, err)
	}

	if data, ok := readEntry(zr, fmt.Sprintf("%d.zip", originalIndex)); ok {
		return &Blob{Data: data, IsZip: true, Ext: "zip"}, nil
	}
	if data, ok := readEntry(zr, fmt.Sprintf("%d.emk", originalIndex)); ok {
		return &Blob{Data: data, IsZip: false, Ext: "emk"}, nil
	}
	return nil, kerr.ErrBlobNotFound
}

// openBatchArchive returns the raw bytes of the batch archive, trying
// the flat path first (CreateZips output before any super-archive pass
// has run, or super-archiving disabled) and falling back to the
// karaoke_<k>.zip archive named by the manifest.
func openBatchArchive(archiveRoot string, superIndex int, batchName string) ([]byte, error) {
	flatPath := filepath.Join(archiveRoot, batchName)
	if data, err := os.ReadFile(flatPath); err == nil {
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %v", kerr.ErrBlobNotFound, err)
	}

	k, err := lookupSuperArchive(archiveRoot, superIndex)
	if err != nil {
		return nil, err
	}

	superPath := filepath.Join(archiveRoot, fmt.Sprintf("karaoke_%d.zip", k))
	superZR, err := zip.OpenReader(superPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerr.ErrBlobNotFound, err)
	}
	defer superZR.Close()

	data, ok := readEntry(&superZR.Reader, batchName)
	if !ok {
		return nil, kerr.ErrBlobNotFound
	}
	return data, nil
}

// lookupSuperArchive reads pack.ManifestFileName under archiveRoot to
// find which super-archive a batch was folded into.
func lookupSuperArchive(archiveRoot string, superIndex int) (int, error) {
	raw, err := os.ReadFile(filepath.Join(archiveRoot, pack.ManifestFileName))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", kerr.ErrBlobNotFound, err)
	}
	var manifest map[string]int
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &manifest); err != nil {
		return 0, fmt.Errorf("%w: %v", kerr.ErrBlobNotFound, err)
	}
	k, ok := manifest[fmt.Sprintf("%d", superIndex)]
	if !ok {
		return 0, kerr.ErrBlobNotFound
	}
	return k, nil
}

func readEntry(zr *zip.Reader, name string) ([]byte, bool) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, false
		}
		return data, true
	}
	return nil, false
}

package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rpcpool/karaoke-archivist/kerr"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentSuperArchiveWrites bounds how many karaoke_<k>.zip files
// BuildSuperArchives writes at once; each group's members are read and
// re-zipped independently, so the fan-out is safe to parallelize.
const maxConcurrentSuperArchiveWrites = 4

// SuperArchive describes one emitted karaoke_<k>.zip and the batch files
// folded into it.
type SuperArchive struct {
	Index   int
	Path    string
	Size    int64
	Batches []int // super_index of each member batch, in emission order
}

// BuildSuperArchives enumerates the finalized batch files, sorted by their
// numeric super_index, groups them into karaoke_<k>.zip containers bounded
// by limitBytes, then writes the groups concurrently (bounded by
// maxConcurrentSuperArchiveWrites) and deletes each source batch file once
// it has been folded into its super-archive. A single batch larger than the
// limit occupies a super-archive alone.
func BuildSuperArchives(outputRoot string, batches []BatchFile, limitBytes int64) ([]SuperArchive, error) {
	sorted := make([]BatchFile, len(batches))
	copy(sorted, batches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SuperIndex < sorted[j].SuperIndex })

	var groups [][]BatchFile
	var current []BatchFile
	var running int64
	for _, b := range sorted {
		if len(current) > 0 && running+b.Size > limitBytes {
			groups = append(groups, current)
			current = nil
			running = 0
		}
		current = append(current, b)
		running += b.Size
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	out := make([]SuperArchive, len(groups))
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentSuperArchiveWrites)
	for k, members := range groups {
		k, members := k, members
		g.Go(func() error {
			sa, err := writeSuperArchive(outputRoot, k, members)
			if err != nil {
				return err
			}
			for _, b := range members {
				if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("%w: removing %s: %v", kerr.ErrWriteFailed, b.Path, err)
				}
			}
			out[k] = sa
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func writeSuperArchive(outputRoot string, k int, members []BatchFile) (SuperArchive, error) {
	finalPath := filepath.Join(outputRoot, fmt.Sprintf("karaoke_%d.zip", k))
	tmpPath := filepath.Join(outputRoot, fmt.Sprintf(".%s.tmp", uuid.NewString()))

	f, err := os.Create(tmpPath)
	if err != nil {
		return SuperArchive{}, err
	}

	zw := zip.NewWriter(f)
	ids := make([]int, 0, len(members))
	for _, b := range members {
		if err := copyFileIntoZip(zw, b.Path); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return SuperArchive{}, err
		}
		ids = append(ids, b.SuperIndex)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return SuperArchive{}, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return SuperArchive{}, err
	}
	size := info.Size()
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return SuperArchive{}, err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return SuperArchive{}, err
	}

	return SuperArchive{Index: k, Path: finalPath, Size: size, Batches: ids}, nil
}

// ManifestFileName is the name of the JSON file mapping each batch's
// super_index to the index k of the karaoke_<k>.zip that contains it,
// written alongside the archives so the blob retrieval primitive can
// find a batch without scanning every super-archive.
const ManifestFileName = "archive_manifest.json"

// WriteManifest persists the batch-to-super-archive mapping implied by
// supers.
func WriteManifest(outputRoot string, supers []SuperArchive) error {
	manifest := make(map[string]int)
	for _, sa := range supers {
		for _, batchSuperIndex := range sa.Batches {
			manifest[fmt.Sprintf("%d", batchSuperIndex)] = sa.Index
		}
	}
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("%w: %v", kerr.ErrWriteFailed, err)
	}
	path := filepath.Join(outputRoot, ManifestFileName)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("%w: %v", kerr.ErrWriteFailed, err)
	}
	return nil
}

func copyFileIntoZip(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: filepath.Base(path), Method: zip.Store})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

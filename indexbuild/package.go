package indexbuild

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rpcpool/karaoke-archivist/kerr"
)

// WriteIndexZip archives master_index.json and every preview_chunk shard
// file under outputRoot/Data into outputRoot/index.zip, with entry names
// preserved relative to outputRoot, per the optional packaging step.
func WriteIndexZip(outputRoot string) error {
	dataDir := filepath.Join(outputRoot, "Data")
	zipPath := filepath.Join(outputRoot, "index.zip")

	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %v", kerr.ErrWriteFailed, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	err = filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(outputRoot, path)
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: filepath.ToSlash(rel), Method: zip.Store})
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("%w: %v", kerr.ErrWriteFailed, err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %v", kerr.ErrWriteFailed, err)
	}
	return nil
}

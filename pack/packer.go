// Package pack implements the batched asset packer and archiver: identity
// assignment, per-song compression, and batch/super-archive rollover.
package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
	"github.com/rpcpool/karaoke-archivist/assets"
	"github.com/rpcpool/karaoke-archivist/dbf"
	"github.com/rpcpool/karaoke-archivist/kerr"
	"github.com/valyala/bytebufferpool"
)

// Config bounds the packer's batch rollover behaviour.
type Config struct {
	OutputRoot         string
	BatchSize          int
	LargeZipLimitBytes int64
	CreateZips         bool
}

// BatchFile describes one finalized batch archive, used as input to the
// super-archive pass.
type BatchFile struct {
	SuperIndex int
	Path       string
	Size       int64
}

// Packer owns next_original_index, next_super_index, the current batch,
// and all disk writes. It is not safe for concurrent use: callers must
// serialize calls to Accept and Finish on a single goroutine, the way the
// packer's single-writer discipline is specified.
type Packer struct {
	cfg Config

	nextOriginalIndex int
	nextSuperIndex    int

	batch         []batchEntry
	batchBytes    int64
	pendingTracks []dbf.Track

	accepted []dbf.Track
	batches  []BatchFile
}

type batchEntry struct {
	name string
	data []byte
}

func New(cfg Config) *Packer {
	return &Packer{cfg: cfg}
}

// Accept compresses the song's assets and, if resolvable, assigns it an
// original_index and folds it into the current batch, finalizing the
// batch first if adding this blob would overrun the configured limits.
// It reports false (no error) for a track that is rejected: unresolvable
// bundle, or a SubType outside {EMK, NCN}.
func (p *Packer) Accept(t dbf.Track, bundle *assets.Bundle) (dbf.Track, bool, error) {
	ext, data, ok := buildBlob(t, bundle)
	if !ok {
		return dbf.Track{}, false, nil
	}

	t.OriginalIndex = intPtr(p.nextOriginalIndex)
	p.nextOriginalIndex++
	name := fmt.Sprintf("%d.%s", *t.OriginalIndex, ext)

	if len(p.batch) > 0 && p.batchBytes+int64(len(data)) > p.cfg.LargeZipLimitBytes {
		if err := p.finalizeBatch(); err != nil {
			return dbf.Track{}, false, err
		}
	}

	p.batch = append(p.batch, batchEntry{name: name, data: data})
	p.batchBytes += int64(len(data))
	p.pendingTracks = append(p.pendingTracks, t)

	if len(p.batch) >= p.cfg.BatchSize || p.batchBytes >= p.cfg.LargeZipLimitBytes {
		if err := p.finalizeBatch(); err != nil {
			return dbf.Track{}, false, err
		}
	}

	return t, true, nil
}

// Finish finalizes any partial batch remaining once the input stream
// ends.
func (p *Packer) Finish() error {
	return p.finalizeBatch()
}

// Accepted returns every track that was assigned identity, in the order
// the packer accepted them (fetch-completion order).
func (p *Packer) Accepted() []dbf.Track {
	return p.accepted
}

// Batches returns the finalized batch archives, in emission order.
func (p *Packer) Batches() []BatchFile {
	return p.batches
}

func (p *Packer) finalizeBatch() error {
	if len(p.batch) == 0 {
		return nil
	}

	superIdx := p.nextSuperIndex
	p.nextSuperIndex++

	for i := range p.pendingTracks {
		p.pendingTracks[i].SuperIndex = intPtr(superIdx)
		p.accepted = append(p.accepted, p.pendingTracks[i])
	}

	var size int64
	if p.cfg.CreateZips {
		path, written, err := writeBatchArchive(p.cfg.OutputRoot, superIdx, p.batch)
		if err != nil {
			return fmt.Errorf("%w: batch %d: %v", kerr.ErrWriteFailed, superIdx, err)
		}
		size = written
		p.batches = append(p.batches, BatchFile{SuperIndex: superIdx, Path: path, Size: size})
	} else {
		for _, e := range p.batch {
			size += int64(len(e.data))
		}
		p.batches = append(p.batches, BatchFile{SuperIndex: superIdx, Size: size})
	}

	p.batch = nil
	p.batchBytes = 0
	p.pendingTracks = nil
	return nil
}

func intPtr(v int) *int { return &v }

// buildBlob compresses a track's resolved assets into the blob that will
// become one entry in its batch archive, returning its file extension
// (the caller assigns the entry's stem from original_index).
func buildBlob(t dbf.Track, bundle *assets.Bundle) (ext string, data []byte, ok bool) {
	if !bundle.Resolvable() {
		return "", nil, false
	}
	switch t.SubType {
	case dbf.SubTypeEMK:
		return "emk", bundle.EMK, true
	case dbf.SubTypeNCN:
		data, err := buildNCNZip(bundle)
		if err != nil {
			return "", nil, false
		}
		return "zip", data, true
	default:
		return "", nil, false
	}
}

// buildNCNZip packages an NCN bundle's three files into a single
// in-memory zip, DEFLATE level 9.
func buildNCNZip(bundle *assets.Bundle) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	zw := zip.NewWriter(buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	entries := []struct {
		name string
		data []byte
	}{
		{"song.mid", bundle.Midi},
		{"song.lyr", bundle.Lyr},
		{"song.cur", bundle.Cur},
	}
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// writeBatchArchive writes <super_index>.zip containing entries as-is
// (zip.Store; entries are already compressed or opaque binary), via a
// temp file renamed into place atomically once fully written.
func writeBatchArchive(outputRoot string, superIdx int, entries []batchEntry) (string, int64, error) {
	finalPath := filepath.Join(outputRoot, fmt.Sprintf("%d.zip", superIdx))
	tmpPath := filepath.Join(outputRoot, fmt.Sprintf(".%s.tmp", uuid.NewString()))

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", 0, err
	}

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Store})
		if err != nil {
			f.Close()
			os.Remove(tmpPath)
			return "", 0, err
		}
		if _, err := w.Write(e.data); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return "", 0, err
		}
	}
	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", 0, err
	}
	size := info.Size()

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", 0, err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", 0, err
	}
	return finalPath, size, nil
}

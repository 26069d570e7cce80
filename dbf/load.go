package dbf

import (
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

// LoadTracks reads a whole DBF file and decodes every undeleted record
// into a Track, in file order.
func LoadTracks(path string) ([]Track, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dbf: failed to read %s: %w", path, err)
	}

	h, err := ParseHeader(buf)
	if err != nil {
		return nil, fmt.Errorf("dbf: failed to parse header of %s: %w", path, err)
	}

	raw, err := ReadRecords(buf, h)
	if err != nil {
		klog.Warningf("%s: %v; keeping the %d records read so far", path, err, len(raw))
	}
	tracks := make([]Track, 0, len(raw))
	for _, r := range raw {
		tracks = append(tracks, DecodeTrack(r))
	}
	return tracks, nil
}

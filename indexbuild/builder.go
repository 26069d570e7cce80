package indexbuild

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rpcpool/karaoke-archivist/dbf"
	"github.com/rpcpool/karaoke-archivist/kerr"
)

// ShardMaxBytes bounds the serialized size of any one shard, except when
// a single word's own posting list exceeds it.
const ShardMaxBytes = 5 << 20

var json2 = jsoniter.ConfigCompatibleWithStandardLibrary

// Build runs tokenization, shard assignment, and master index emission
// for a fully-identified set of accepted tracks, writing
// Data/master_index.json and Data/preview_chunk/<id>.json under
// outputRoot. It returns the MasterIndex that was written.
func Build(outputRoot string, tracks []dbf.Track, elapsed time.Duration, now time.Time) (*MasterIndex, error) {
	postings := buildPostings(tracks)

	words := make([]string, 0, len(postings))
	for w := range postings {
		words = append(words, w)
	}
	sort.Strings(words)

	dataDir := filepath.Join(outputRoot, "Data")
	chunkDir := filepath.Join(dataDir, "preview_chunk")
	if err := os.MkdirAll(chunkDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", kerr.ErrWriteFailed, err)
	}

	shards, wordToChunk, err := assignShards(words, postings, ShardMaxBytes)
	if err != nil {
		return nil, err
	}
	for id, shard := range shards {
		if err := writeShard(chunkDir, id, shard); err != nil {
			return nil, err
		}
	}

	mi := &MasterIndex{
		TotalRecords: len(tracks),
		Words:        words,
		WordToChunk:  wordToChunk,
		BuildTimeMs:  elapsed.Milliseconds(),
		LastBuiltISO: now.Format("2006-01-02T15:04:05.000000"),
	}
	if err := writeMasterIndex(dataDir, mi); err != nil {
		return nil, err
	}
	return mi, nil
}

// buildPostings tokenizes every track and appends its preview record to
// every token it produces, in track-insertion order. Duplicate tokens
// (shared between title and artist of one track) legitimately appear
// twice in a posting list.
func buildPostings(tracks []dbf.Track) map[string][]Preview {
	postings := map[string][]Preview{}
	for _, t := range tracks {
		if t.OriginalIndex == nil || t.SuperIndex == nil {
			continue
		}
		p := Preview{Title: t.Title, Artist: t.Artist, OriginalID: *t.OriginalIndex, SuperID: *t.SuperIndex}
		for _, tok := range Tokenize(t.Title, t.Artist) {
			postings[tok] = append(postings[tok], p)
		}
	}
	return postings
}

// assignShards walks words in sorted order, packing each word's posting
// list into the current shard until adding the next list would push the
// running serialized-size estimate over maxBytes; the shard is then
// flushed and a new one started. A single word whose posting list alone
// exceeds maxBytes occupies a shard by itself. Shard ids are contiguous
// from 0, in assignment order.
func assignShards(words []string, postings map[string][]Preview, maxBytes int) ([]Shard, map[string]int, error) {
	var shards []Shard
	wordToChunk := make(map[string]int, len(words))
	current := Shard{}
	currentSize := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		shards = append(shards, current)
		current = Shard{}
		currentSize = 0
	}

	for _, w := range words {
		postingList := postings[w]
		size, err := estimatePostingBytes(w, postingList)
		if err != nil {
			return nil, nil, err
		}
		if len(current) > 0 && currentSize+size > maxBytes {
			flush()
		}
		current[w] = postingList
		currentSize += size
		wordToChunk[w] = len(shards)
	}
	flush()

	return shards, wordToChunk, nil
}

// estimatePostingBytes is the word's byte length plus the UTF-8 byte
// length of its posting list serialized alone as JSON, used as the
// running shard-size estimate during assignment.
func estimatePostingBytes(word string, list []Preview) (int, error) {
	b, err := json2.Marshal(list)
	if err != nil {
		return 0, err
	}
	return len(word) + len(b), nil
}

func writeShard(chunkDir string, id int, shard Shard) error {
	b, err := json2.Marshal(shard)
	if err != nil {
		return fmt.Errorf("%w: %v", kerr.ErrWriteFailed, err)
	}
	path := filepath.Join(chunkDir, fmt.Sprintf("%d.json", id))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("%w: %v", kerr.ErrWriteFailed, err)
	}
	return nil
}

func writeMasterIndex(dataDir string, mi *MasterIndex) error {
	b, err := json2.Marshal(mi)
	if err != nil {
		return fmt.Errorf("%w: %v", kerr.ErrWriteFailed, err)
	}
	path := filepath.Join(dataDir, "master_index.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("%w: %v", kerr.ErrWriteFailed, err)
	}
	return nil
}

package indexbuild

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/rpcpool/karaoke-archivist/dbf"
	"github.com/stretchr/testify/require"
)

func idx(i int) *int { return &i }

func track(title, artist string, orig, super int) dbf.Track {
	return dbf.Track{Title: title, Artist: artist, OriginalIndex: idx(orig), SuperIndex: idx(super)}
}

func TestBuildEmitsSortedWordsAndMatchingChunkMap(t *testing.T) {
	dir := t.TempDir()
	tracks := []dbf.Track{
		track("Hello World", "The Band", 0, 0),
		track("Quick Brown Fox", "", 1, 0),
	}

	mi, err := Build(dir, tracks, time.Millisecond, time.Unix(0, 0).UTC())
	require.NoError(t, err)

	require.True(t, sort.StringsAreSorted(mi.Words))
	require.Len(t, mi.WordToChunk, len(mi.Words))
	for _, w := range mi.Words {
		_, ok := mi.WordToChunk[w]
		require.True(t, ok)
	}
	require.FileExists(t, filepath.Join(dir, "Data", "master_index.json"))
}

func TestAssignShardsSplitsOnSizeCeiling(t *testing.T) {
	p := Preview{Title: "x", Artist: "y", OriginalID: 0, SuperID: 0}
	postings := map[string][]Preview{
		"aa": {p, p},
		"bb": {p, p, p},
		"cc": {p, p},
	}
	words := []string{"aa", "bb", "cc"}

	s1, err := estimatePostingBytes("aa", postings["aa"])
	require.NoError(t, err)
	s2, err := estimatePostingBytes("bb", postings["bb"])
	require.NoError(t, err)

	// A ceiling that holds the first two words exactly forces the third
	// into a shard of its own.
	shards, wordToChunk, err := assignShards(words, postings, s1+s2)
	require.NoError(t, err)
	require.Len(t, shards, 2)
	require.Len(t, shards[0], 2)
	require.Len(t, shards[1], 1)
	require.Equal(t, 0, wordToChunk["aa"])
	require.Equal(t, 0, wordToChunk["bb"])
	require.Equal(t, 1, wordToChunk["cc"])
}

func TestAssignShardsOversizedWordAlone(t *testing.T) {
	p := Preview{Title: "a long enough title to overflow", Artist: "someone", OriginalID: 0, SuperID: 0}
	postings := map[string][]Preview{
		"aa": {p},
		"bb": {p, p, p, p},
		"cc": {p},
	}
	words := []string{"aa", "bb", "cc"}

	shards, wordToChunk, err := assignShards(words, postings, 10)
	require.NoError(t, err)
	require.Len(t, shards, 3)
	require.Equal(t, 0, wordToChunk["aa"])
	require.Equal(t, 1, wordToChunk["bb"])
	require.Equal(t, 2, wordToChunk["cc"])
}

func TestBuildWritesShardFiles(t *testing.T) {
	dir := t.TempDir()

	tracks := []dbf.Track{
		track("aa", "", 0, 0),
		track("bb", "", 1, 0),
		track("cc", "", 2, 0),
	}
	mi, err := Build(dir, tracks, 0, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Len(t, mi.Words, 3)

	entries, err := os.ReadDir(filepath.Join(dir, "Data", "preview_chunk"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 1)
}

func TestBuildSkipsTracksWithoutIdentity(t *testing.T) {
	dir := t.TempDir()
	tracks := []dbf.Track{
		{Title: "no identity", Artist: ""},
		track("has identity", "", 0, 0),
	}
	mi, err := Build(dir, tracks, 0, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.NotContains(t, mi.Words, "no")
	require.Contains(t, mi.Words, "identity")
}

package indexbuild

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeASCII(t *testing.T) {
	got := Tokenize("Hello World 2024", "The BAND")
	require.ElementsMatch(t, []string{"hello", "world", "2024", "the", "band"}, got)
}

func TestTokenizeDropsShortRuns(t *testing.T) {
	got := Tokenize("a I am", "x")
	require.ElementsMatch(t, []string{"am"}, got)
}

func TestTokenizeThaiBlock(t *testing.T) {
	got := Tokenize("กขฃ", "")
	require.ElementsMatch(t, []string{"กขฃ"}, got)
}

func TestTokenizeDuplicateAcrossTitleAndArtist(t *testing.T) {
	got := Tokenize("love", "love")
	require.Equal(t, []string{"love", "love"}, got)
}

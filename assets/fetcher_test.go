package assets

import (
	"context"
	"testing"

	"github.com/rpcpool/karaoke-archivist/dbf"
	"github.com/stretchr/testify/require"
)

type fakeStore struct{}

func (fakeStore) Fetch(ctx context.Context, t dbf.Track) (*Bundle, error) {
	if t.Code == "MISS" {
		return &Bundle{SubType: t.SubType}, nil
	}
	return &Bundle{SubType: dbf.SubTypeEMK, EMK: []byte(t.Code)}, nil
}

func TestFetcherRunDeliversAllTracks(t *testing.T) {
	tracks := []dbf.Track{
		{Code: "A", SubType: dbf.SubTypeEMK},
		{Code: "B", SubType: dbf.SubTypeEMK},
		{Code: "MISS", SubType: dbf.SubTypeEMK},
	}

	f := NewFetcher(fakeStore{}, 2)
	seen := map[string]bool{}
	for res := range f.Run(context.Background(), tracks) {
		require.NoError(t, res.Err)
		seen[res.Track.Code] = res.Bundle.Resolvable()
	}

	require.Len(t, seen, 3)
	require.True(t, seen["A"])
	require.True(t, seen["B"])
	require.False(t, seen["MISS"])
}

package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/stretchr/testify/require"
)

func TestShardCacheLoadsOnceAndCachesThereafter(t *testing.T) {
	c, err := NewShardCache(context.Background(), bigcache.DefaultConfig(time.Minute))
	require.NoError(t, err)

	calls := 0
	load := func() ([]byte, error) {
		calls++
		return []byte(`{"hello":[{"t":"Hello","a":"","i":0,"s":0}]}`), nil
	}

	shard, err := c.Get(1, load)
	require.NoError(t, err)
	require.Len(t, shard, 1)
	require.Equal(t, 1, calls)

	shard, err = c.Get(1, load)
	require.NoError(t, err)
	require.Len(t, shard, 1)
	require.Equal(t, 1, calls, "second Get should hit cache, not call load again")
}

func TestShardCachePropagatesLoadError(t *testing.T) {
	c, err := NewShardCache(context.Background(), bigcache.DefaultConfig(time.Minute))
	require.NoError(t, err)

	boom := errors.New("disk gone")
	_, err = c.Get(2, func() ([]byte, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
}

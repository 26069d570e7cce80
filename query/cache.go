package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/allegro/bigcache/v3"
	jsoniter "github.com/json-iterator/go"
	"github.com/rpcpool/karaoke-archivist/indexbuild"
)

// ShardCache is a bounded, concurrent-safe cache of raw shard JSON keyed
// by shard id; shards are decoded on every Get.
type ShardCache struct {
	cache *bigcache.BigCache
}

func NewShardCache(ctx context.Context, cfg bigcache.Config) (*ShardCache, error) {
	c, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &ShardCache{cache: c}, nil
}

func shardKey(id int) string {
	return fmt.Sprintf("shard-%d", id)
}

// Get returns the decoded shard for id. On a cache miss, load is called
// to fetch the shard's raw JSON bytes (normally from disk); once they
// decode, the raw bytes are inserted into the cache and the decoded
// shard is returned.
func (c *ShardCache) Get(id int, load func() ([]byte, error)) (indexbuild.Shard, error) {
	key := shardKey(id)
	if cached, err := c.cache.Get(key); err == nil {
		return decodeShard(cached)
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, err
	}

	raw, err := load()
	if err != nil {
		return nil, err
	}
	shard, err := decodeShard(raw)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(key, raw); err != nil {
		return nil, err
	}
	return shard, nil
}

func decodeShard(raw []byte) (indexbuild.Shard, error) {
	var shard indexbuild.Shard
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &shard); err != nil {
		return nil, err
	}
	return shard, nil
}

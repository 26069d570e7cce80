package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	jsoniter "github.com/json-iterator/go"
	"github.com/rpcpool/karaoke-archivist/indexbuild"
	"github.com/urfave/cli/v2"
)

func newCmd_DumpIndex() *cli.Command {
	var indexRoot, word string
	var shardID int
	return &cli.Command{
		Name:        "dump-index",
		Usage:       "Dump a master index or one of its shards for troubleshooting",
		Description: "Loads Data/master_index.json under the given output root and pretty-prints either the master index, a specific shard, or the posting list for one word.",
		ArgsUsage:   "--index-root=<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "index-root",
				Usage:       "Output root containing Data/master_index.json",
				Destination: &indexRoot,
				Required:    true,
			},
			&cli.IntFlag{
				Name:        "shard",
				Usage:       "Dump the shard with this id instead of the master index",
				Destination: &shardID,
				Value:       -1,
			},
			&cli.StringFlag{
				Name:        "word",
				Usage:       "Dump only the posting list for this word (requires --shard)",
				Destination: &word,
			},
		},
		Action: func(c *cli.Context) error {
			return runDumpIndex(indexRoot, shardID, word)
		},
	}
}

func runDumpIndex(indexRoot string, shardID int, word string) error {
	dataDir := filepath.Join(indexRoot, "Data")

	if shardID < 0 {
		mi, err := loadMasterIndexForDump(dataDir)
		if err != nil {
			return err
		}
		spew.Dump(mi)
		return nil
	}

	shard, err := loadShardForDump(dataDir, shardID)
	if err != nil {
		return err
	}
	if word == "" {
		spew.Dump(shard)
		return nil
	}
	spew.Dump(shard[word])
	return nil
}

func loadMasterIndexForDump(dataDir string) (*indexbuild.MasterIndex, error) {
	raw, err := os.ReadFile(filepath.Join(dataDir, "master_index.json"))
	if err != nil {
		return nil, fmt.Errorf("reading master index: %w", err)
	}
	var mi indexbuild.MasterIndex
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &mi); err != nil {
		return nil, fmt.Errorf("decoding master index: %w", err)
	}
	return &mi, nil
}

func loadShardForDump(dataDir string, id int) (indexbuild.Shard, error) {
	path := filepath.Join(dataDir, "preview_chunk", fmt.Sprintf("%d.json", id))
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading shard %d: %w", id, err)
	}
	shard := indexbuild.Shard{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &shard); err != nil {
		return nil, fmt.Errorf("decoding shard %d: %w", id, err)
	}
	return shard, nil
}

package main

import (
	"context"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/rpcpool/karaoke-archivist/httpapi"
	"github.com/rpcpool/karaoke-archivist/query"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

func newCmd_Serve() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:        "serve",
		Usage:       "Serve the search index and blob retrieval API over HTTP",
		Description: "Loads the master index built by the build command and answers /search and /get_song requests.",
		ArgsUsage:   "--config=<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to a JSON or YAML config file",
				Destination: &configPath,
				Required:    true,
			},
		},
		Action: func(c *cli.Context) error {
			return runServe(c.Context, configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	cacheCfg := bigcache.DefaultConfig(10 * time.Minute)
	cacheCfg.HardMaxCacheSize = cfg.ShardCacheMB

	engine, err := query.Load(ctx, cfg.OutputRoot, cacheCfg)
	if err != nil {
		return err
	}
	go func() {
		if err := engine.WatchForReload(ctx); err != nil {
			klog.Errorf("index watcher stopped: %v", err)
		}
	}()

	server := httpapi.NewServer(engine, cfg.OutputRoot)
	return server.ListenAndServe(cfg.ListenAddr)
}

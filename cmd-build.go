package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rpcpool/karaoke-archivist/assets"
	"github.com/rpcpool/karaoke-archivist/dbf"
	"github.com/rpcpool/karaoke-archivist/indexbuild"
	"github.com/rpcpool/karaoke-archivist/kerr"
	"github.com/rpcpool/karaoke-archivist/pack"
	"github.com/rpcpool/karaoke-archivist/telemetry"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

func newCmd_Build() *cli.Command {
	var configPath string
	return &cli.Command{
		Name:        "build",
		Usage:       "Ingest a karaoke catalog and produce archives plus a search index",
		Description: "Reads Data/SONG.DBF and Songs/... under input_root, packs resolvable tracks into batch and super archives, and builds the sharded search index under output_root.",
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
			return runBuild(c.Context, configPath)
		},
	}
}

func runBuild(ctx context.Context, configPath string) error {
	ctx, buildSpan := telemetry.StartSpan(ctx, "build")
	defer buildSpan.End()

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	registerOutputDiskCollector(cfg.OutputRoot)

	started := time.Now()

	dbfPath := filepath.Join(cfg.InputRoot, "Data", "SONG.DBF")
	klog.Infof("loading catalog from %s", dbfPath)
	_, dbfSpan := telemetry.TraceFileOperation(ctx, "read", dbfPath)
	tracks, err := dbf.LoadTracks(dbfPath)
	dbfSpan.End()
	if err != nil {
		telemetry.RecordError(buildSpan, err, "failed to load DBF catalog")
		return fmt.Errorf("failed to load DBF catalog: %w", err)
	}
	klog.Infof("decoded %d tracks", len(tracks))

	store := assets.NewFilesystemStore(cfg.InputRoot)
	fetcher := assets.NewFetcher(store, cfg.MaxWorkers)

	packer := pack.New(pack.Config{
		OutputRoot:         cfg.OutputRoot,
		BatchSize:          cfg.BatchSize,
		LargeZipLimitBytes: cfg.LargeZipLimitBytes(),
		CreateZips:         cfg.CreateZips,
	})

	fetchStarted := time.Now()
	for result := range fetcher.Run(ctx, tracks) {
		if result.Err != nil {
			klog.Errorf("asset fetch failed for record %d (%s): %v", result.Track.RecordIdx, result.Track.Code, result.Err)
			metrics_tracksSkipped.WithLabelValues("fetch_error").Inc()
			continue
		}
		if !result.Bundle.Resolvable() {
			klog.V(2).Info(fmt.Errorf("%w: record %d (%s)", kerr.ErrAssetMissing, result.Track.RecordIdx, result.Track.Code))
			metrics_tracksSkipped.WithLabelValues("unresolvable").Inc()
			continue
		}
		if _, accepted, err := packer.Accept(result.Track, result.Bundle); err != nil {
			return fmt.Errorf("failed to pack track %q: %w", result.Track.Code, err)
		} else if accepted {
			metrics_tracksAccepted.Inc()
		} else {
			metrics_tracksSkipped.WithLabelValues("unresolvable").Inc()
		}
	}
	metrics_assetFetchDuration.Observe(time.Since(fetchStarted).Seconds())

	if ctx.Err() != nil {
		klog.Warningf("build canceled: discarding in-progress batch, %d tracks already accepted", len(packer.Accepted()))
		return ctx.Err()
	}

	if err := packer.Finish(); err != nil {
		return fmt.Errorf("failed to finalize batches: %w", err)
	}

	accepted := packer.Accepted()
	klog.Infof("accepted %d of %d tracks into %d batches", len(accepted), len(tracks), len(packer.Batches()))

	if cfg.CreateZips {
		var supers []pack.SuperArchive
		err := telemetry.MeasureExecutionTime(buildSpan, "superArchives", func() error {
			var buildErr error
			supers, buildErr = pack.BuildSuperArchives(cfg.OutputRoot, packer.Batches(), cfg.LargeZipLimitBytes())
			return buildErr
		})
		if err != nil {
			return fmt.Errorf("failed to build super-archives: %w", err)
		}
		klog.Infof("folded batches into %d super-archives", len(supers))

		if err := pack.WriteManifest(cfg.OutputRoot, supers); err != nil {
			return fmt.Errorf("failed to write archive manifest: %w", err)
		}
	}

	var mi *indexbuild.MasterIndex
	indexErr := telemetry.TraceExecutionTime(ctx, "indexbuild", func() error {
		var buildErr error
		mi, buildErr = indexbuild.Build(cfg.OutputRoot, accepted, time.Since(started), time.Now())
		return buildErr
	})
	if indexErr != nil {
		return fmt.Errorf("failed to build search index: %w", indexErr)
	}
	metrics_shardsWritten.Add(float64(countShards(mi.WordToChunk)))

	if cfg.CreateIndexZip {
		if err := indexbuild.WriteIndexZip(cfg.OutputRoot); err != nil {
			return fmt.Errorf("failed to package index.zip: %w", err)
		}
	}

	klog.Infof("build finished in %s, %d words indexed", humanize.RelTime(started, time.Now(), "", ""), len(mi.Words))
	return nil
}

func countShards(wordToChunk map[string]int) int {
	seen := map[int]struct{}{}
	for _, id := range wordToChunk {
		seen[id] = struct{}{}
	}
	return len(seen)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rpcpool/karaoke-archivist/telemetry"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

var gitCommitSHA = ""

func main() {
	// set up a context that is canceled when a command is interrupted
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.InitTelemetry(ctx, "karaoke-archivist")
	if err != nil {
		klog.Exitf("failed to initialize telemetry: %v", err)
	}
	defer shutdownTelemetry()

	// set up a signal handler to cancel the context
	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			klog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}

		// Allow any further SIGTERM or SIGINT to kill process
		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "karaoke-archivist",
		Version:     gitCommitSHA,
		Description: "CLI to ingest a legacy karaoke catalog into batched archives and a sharded search index, and to serve that index over HTTP.",
		Before: func(c *cli.Context) error {
			return nil
		},
		Flags:  NewKlogFlagSet(),
		Action: nil,
		Commands: []*cli.Command{
			newCmd_Build(),
			newCmd_Serve(),
			newCmd_Version(),
			newCmd_DumpIndex(),
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.RunContext(ctx, os.Args); err != nil {
		klog.Exit(err)
	}
}

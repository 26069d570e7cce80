package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpcpool/karaoke-archivist/metrics"
	"k8s.io/klog/v2"
)

func init() {
	prometheus.MustRegister(metrics_tracksAccepted)
	prometheus.MustRegister(metrics_tracksSkipped)
	prometheus.MustRegister(metrics_shardsWritten)
	prometheus.MustRegister(metrics_assetFetchDuration)
	prometheus.MustRegister(metrics.NewNetCollector(nil))
}

var metrics_tracksAccepted = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "tracks_accepted_total",
		Help: "Tracks accepted into the archive during a build run",
	},
)

var metrics_tracksSkipped = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tracks_skipped_total",
		Help: "Tracks skipped during a build run, by reason",
	},
	[]string{"reason"},
)

var metrics_shardsWritten = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "shards_written_total",
		Help: "Search index shard files written during a build run",
	},
)

var metrics_assetFetchDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name: "asset_fetch_duration_seconds",
		Help: "Wall time of the asset fetch stage of a build run",
	},
)

// registerOutputDiskCollector wires a disk I/O collector scoped to the
// device backing outputRoot, so operators can watch write throughput
// during a build.
func registerOutputDiskCollector(outputRoot string) {
	device, err := metrics.GetDeviceForDirectory(outputRoot)
	if err != nil {
		klog.Errorf("could not determine device for %s, disk metrics disabled: %v", outputRoot, err)
		return
	}
	prometheus.MustRegister(metrics.NewDiskCollector([]string{device}))
}

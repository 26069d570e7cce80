package httpapi

import "github.com/prometheus/client_golang/prometheus"

func init() {
	prometheus.MustRegister(metricsSearchRequestsTotal)
	prometheus.MustRegister(metricsSearchDurationSeconds)
	prometheus.MustRegister(metricsGetSongRequestsTotal)
}

var metricsSearchRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "search_requests_total",
		Help: "Search requests by response status",
	},
	[]string{"status"},
)

var metricsSearchDurationSeconds = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name: "search_duration_seconds",
		Help: "Search request latency",
	},
)

var metricsGetSongRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "get_song_requests_total",
		Help: "get_song requests by response status",
	},
	[]string{"status"},
)

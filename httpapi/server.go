// Package httpapi exposes the query engine and blob retrieval primitive
// over a small fasthttp router: /search, /get_song, /metrics.
package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpcpool/karaoke-archivist/query"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"k8s.io/klog/v2"
)

// Server wires the query engine and blob archive root to a fasthttp
// request router.
type Server struct {
	engine      *query.Engine
	archiveRoot string
}

func NewServer(engine *query.Engine, archiveRoot string) *Server {
	return &Server{engine: engine, archiveRoot: archiveRoot}
}

// ListenAndServe starts the fasthttp server on addr, routing requests by
// path the way the reference CLI's RPC server does.
func (s *Server) ListenAndServe(addr string) error {
	promHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())

	handler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/search":
			s.handleSearch(ctx)
		case "/get_song":
			s.handleGetSong(ctx)
		case "/metrics":
			promHandler(ctx)
		default:
			ctx.SetStatusCode(http.StatusNotFound)
		}
	}

	klog.Infof("serving on %s", addr)
	return fasthttp.ListenAndServe(addr, handler)
}

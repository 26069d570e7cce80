package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rpcpool/karaoke-archivist/kerr"
	"github.com/rpcpool/karaoke-archivist/query"
	"github.com/valyala/fasthttp"
	"k8s.io/klog/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (s *Server) handleSearch(ctx *fasthttp.RequestCtx) {
	startedAt := time.Now()
	defer func() {
		metricsSearchDurationSeconds.Observe(time.Since(startedAt).Seconds())
	}()

	q := string(ctx.QueryArgs().Peek("q"))
	maxResults := 0
	if raw := ctx.QueryArgs().Peek("maxResults"); len(raw) > 0 {
		if n, err := strconv.Atoi(string(raw)); err == nil {
			maxResults = n
		}
	}

	results, err := s.engine.Search(q, maxResults)
	if err != nil {
		switch {
		case errors.Is(err, kerr.ErrQueryTooShort):
			metricsSearchRequestsTotal.WithLabelValues("400").Inc()
			replyJSON(ctx, http.StatusBadRequest, map[string]string{"error": "query too short"})
		case errors.Is(err, kerr.ErrIndexNotLoaded):
			metricsSearchRequestsTotal.WithLabelValues("503").Inc()
			replyJSON(ctx, http.StatusServiceUnavailable, map[string]string{"error": "index not loaded"})
		default:
			klog.Errorf("search failed: %v", err)
			metricsSearchRequestsTotal.WithLabelValues("500").Inc()
			replyJSON(ctx, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		return
	}

	metricsSearchRequestsTotal.WithLabelValues("200").Inc()
	replyJSON(ctx, http.StatusOK, results)
}

func (s *Server) handleGetSong(ctx *fasthttp.RequestCtx) {
	superIndex, errS := strconv.Atoi(string(ctx.QueryArgs().Peek("superIndex")))
	originalIndex, errO := strconv.Atoi(string(ctx.QueryArgs().Peek("originalIndex")))
	if errS != nil || errO != nil {
		metricsGetSongRequestsTotal.WithLabelValues("400").Inc()
		ctx.SetStatusCode(http.StatusBadRequest)
		return
	}

	blob, err := query.RetrieveBlob(s.archiveRoot, superIndex, originalIndex)
	if err != nil {
		metricsGetSongRequestsTotal.WithLabelValues("404").Inc()
		ctx.SetStatusCode(http.StatusNotFound)
		return
	}

	mime := "application/octet-stream"
	if blob.IsZip {
		mime = "application/zip"
	}
	ctx.SetContentType(mime)
	ctx.Response.Header.Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="song_%d.%s"`, originalIndex, blob.Ext))
	metricsGetSongRequestsTotal.WithLabelValues("200").Inc()
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(blob.Data)
}

func replyJSON(ctx *fasthttp.RequestCtx, code int, v interface{}) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(code)
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		klog.Errorf("failed to marshal response: %v", err)
	}
}

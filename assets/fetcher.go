package assets

import (
	"context"

	"github.com/rpcpool/karaoke-archivist/dbf"
	concurrently "github.com/tejzpr/ordered-concurrently/v3"
)

// Result pairs a resolved track with its asset bundle, or the error
// encountered while resolving it.
type Result struct {
	Track  dbf.Track
	Bundle *Bundle
	Err    error
}

// Fetcher resolves a stream of tracks against a Store on a bounded worker
// pool. Completion order is non-deterministic; callers that need a stable
// identity order (the packer does) must serialize assignment themselves on
// the consuming side.
type Fetcher struct {
	store      Store
	numWorkers int
}

func NewFetcher(store Store, numWorkers int) *Fetcher {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Fetcher{store: store, numWorkers: numWorkers}
}

// Run submits every track for resolution and returns a channel delivering
// one Result per fetched track. The channel is closed once every submitted
// job has completed; callers should range over it to drain. A canceled ctx
// stops further submission, so the channel may deliver fewer results than
// there were input tracks.
func (f *Fetcher) Run(ctx context.Context, tracks []dbf.Track) <-chan Result {
	workerInputChan := make(chan concurrently.WorkFunction, f.numWorkers)
	outputChan := concurrently.Process(
		ctx,
		workerInputChan,
		&concurrently.Options{PoolSize: f.numWorkers, OutChannelBuffer: f.numWorkers},
	)

	results := make(chan Result, f.numWorkers)

	go func() {
		defer close(results)
		for out := range outputChan {
			res, ok := out.Value.(Result)
			if !ok {
				continue
			}
			results <- res
		}
	}()

	go func() {
		defer close(workerInputChan)
		for _, t := range tracks {
			select {
			case <-ctx.Done():
				return
			case workerInputChan <- fetchJob{store: f.store, track: t}:
			}
		}
	}()

	return results
}

type fetchJob struct {
	store Store
	track dbf.Track
}

func (j fetchJob) Run(ctx context.Context) interface{} {
	bundle, err := j.store.Fetch(ctx, j.track)
	return Result{Track: j.track, Bundle: bundle, Err: err}
}

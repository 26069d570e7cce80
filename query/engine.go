// Package query implements the search engine and blob retrieval primitive
// that the serve phase exposes over HTTP.
package query

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/allegro/bigcache/v3"
	"github.com/fsnotify/fsnotify"
	jsoniter "github.com/json-iterator/go"
	"github.com/rpcpool/karaoke-archivist/indexbuild"
	"github.com/rpcpool/karaoke-archivist/kerr"
	"k8s.io/klog/v2"
)

const DefaultMaxResults = 50

// Result is one ranked search response entry, matching the field names
// the original query API emitted.
type Result struct {
	Title         string `json:"TITLE"`
	Artist        string `json:"ARTIST"`
	OriginalIndex int    `json:"_originalIndex"`
	SuperIndex    int    `json:"_superIndex"`
	Priority      int    `json:"_priority"`
}

// Engine holds the process-wide master index and shard cache. Readers
// take a snapshot of the index under mu; WatchForReload swaps it out
// when master_index.json changes on disk, so in-flight requests keep
// using the snapshot they started with.
type Engine struct {
	dataDir  string
	cacheCfg bigcache.Config

	mu    sync.RWMutex
	mi    *indexbuild.MasterIndex
	cache *ShardCache
}

// Load reads Data/master_index.json from indexRoot and constructs an
// Engine with a bounded shard cache.
func Load(ctx context.Context, indexRoot string, cacheCfg bigcache.Config) (*Engine, error) {
	dataDir := filepath.Join(indexRoot, "Data")
	mi, err := readMasterIndex(dataDir)
	if err != nil {
		return nil, err
	}
	cache, err := NewShardCache(ctx, cacheCfg)
	if err != nil {
		return nil, err
	}
	return &Engine{dataDir: dataDir, cacheCfg: cacheCfg, mi: mi, cache: cache}, nil
}

func readMasterIndex(dataDir string) (*indexbuild.MasterIndex, error) {
	raw, err := os.ReadFile(filepath.Join(dataDir, "master_index.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerr.ErrIndexNotLoaded, err)
	}
	var mi indexbuild.MasterIndex
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &mi); err != nil {
		return nil, fmt.Errorf("%w: %v", kerr.ErrIndexNotLoaded, err)
	}
	return &mi, nil
}

// WatchForReload watches dataDir for writes to master_index.json and
// hot-swaps the in-memory index and shard cache when one lands, so a
// rebuilt catalog can be picked up without restarting the serve
// process. It blocks until ctx is canceled.
func (e *Engine) WatchForReload(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start index watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(e.dataDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", e.dataDir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != "master_index.json" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := e.reload(ctx); err != nil {
				klog.Errorf("failed to reload search index after change to %s: %v", event.Name, err)
			} else {
				klog.Infof("reloaded search index from %s", event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("index watcher error: %v", err)
		}
	}
}

func (e *Engine) reload(ctx context.Context) error {
	mi, err := readMasterIndex(e.dataDir)
	if err != nil {
		return err
	}
	cache, err := NewShardCache(ctx, e.cacheCfg)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.mi, e.cache = mi, cache
	e.mu.Unlock()
	return nil
}

// Search runs the full request contract: normalize, expand the first
// term to candidate words by prefix, filter by AND-of-substrings, score,
// rank, cap.
func (e *Engine) Search(q string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	norm := strings.TrimSpace(strings.ToLower(q))
	if len(norm) < 2 {
		return nil, kerr.ErrQueryTooShort
	}

	searchTerms := strings.Fields(norm)
	if len(searchTerms) == 0 {
		return nil, kerr.ErrQueryTooShort
	}
	prefix := searchTerms[0]

	e.mu.RLock()
	mi, cache := e.mi, e.cache
	e.mu.RUnlock()

	candidateWords := candidateWordsOf(mi, prefix)

	// matched tracks the minimum score per original_index, preserving
	// the slice position of each track's first observation so ties can
	// be broken by a stable sort on that insertion order. Candidate
	// words are visited in sorted order (the order they appear in the
	// master index) and shards are loaded at most once per request.
	type scored struct {
		preview indexbuild.Preview
		score   int
	}
	var matched []scored
	position := map[int]int{}
	shards := map[int]indexbuild.Shard{}

	for _, word := range candidateWords {
		id, ok := mi.WordToChunk[word]
		if !ok {
			continue
		}
		shard, ok := shards[id]
		if !ok {
			var err error
			shard, err = loadShard(cache, e.dataDir, id)
			if err != nil {
				return nil, err
			}
			shards[id] = shard
		}
		for _, p := range shard[word] {
			if !matchesAllTerms(p, searchTerms) {
				continue
			}
			score := scoreMatch(p, norm, searchTerms)
			if pos, ok := position[p.OriginalID]; ok {
				if score < matched[pos].score {
					matched[pos].score = score
				}
				continue
			}
			position[p.OriginalID] = len(matched)
			matched = append(matched, scored{preview: p, score: score})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].score < matched[j].score })
	if len(matched) > maxResults {
		matched = matched[:maxResults]
	}

	results := make([]Result, 0, len(matched))
	for _, s := range matched {
		results = append(results, Result{
			Title:         s.preview.Title,
			Artist:        s.preview.Artist,
			OriginalIndex: s.preview.OriginalID,
			SuperIndex:    s.preview.SuperID,
			Priority:      s.score,
		})
	}
	return results, nil
}

// candidateWordsOf locates every word starting with prefix via a binary
// search for the lower bound followed by a scan while the prefix holds.
// The master index's words are sorted, so the result is too.
func candidateWordsOf(mi *indexbuild.MasterIndex, prefix string) []string {
	words := mi.Words
	start := sort.SearchStrings(words, prefix)

	var out []string
	for i := start; i < len(words) && strings.HasPrefix(words[i], prefix); i++ {
		out = append(out, words[i])
	}
	return out
}

func loadShard(cache *ShardCache, dataDir string, id int) (indexbuild.Shard, error) {
	return cache.Get(id, func() ([]byte, error) {
		path := filepath.Join(dataDir, "preview_chunk", fmt.Sprintf("%d.json", id))
		return os.ReadFile(path)
	})
}

// matchesAllTerms is the AND-of-substrings filter: a preview matches iff
// every term appears as a substring of lower(title+" "+artist).
func matchesAllTerms(p indexbuild.Preview, terms []string) bool {
	haystack := strings.ToLower(p.Title + " " + p.Artist)
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// scoreMatch computes the ranking score, lower is better. Checks run in
// a fixed order and the first match wins.
func scoreMatch(p indexbuild.Preview, q string, terms []string) int {
	title := strings.ToLower(p.Title)
	artist := strings.ToLower(p.Artist)

	if title == q {
		return 1
	}
	if strings.HasPrefix(title, q) {
		return 2
	}
	if allSubstrings(terms, title) {
		return 3
	}
	if allSubstrings(terms, artist) {
		return 4
	}
	if allSubstrings(terms, title+" "+artist) {
		return 5
	}
	return 99
}

func allSubstrings(terms []string, haystack string) bool {
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}

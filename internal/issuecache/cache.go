// Package issuecache maintains the durable map from test name to
// issue-tracker key shared by every queue across runs. Issue search is the
// slowest and most rate-limited external call the collector makes; caching
// by exact test name turns an O(unique failing tests) cost per run into
// O(new test names) per run. A nil value is a confirmed negative: the name
// was searched and no issue exists.
package issuecache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// searchBatchWidth bounds concurrent in-flight search queries. The issue
// tracker rate-limits aggressively, so misses are resolved at most five
// at a time.
const searchBatchWidth = 5

// Searcher resolves one test name to an issue key. found is false when
// the search succeeded but matched nothing.
type Searcher interface {
	FindIssueKey(ctx context.Context, testName string) (key string, found bool, err error)
}

// Cache is the in-memory lookup cache for one run. It is loaded once at
// start, mutated only through Resolve, and persisted once at the end.
// Not safe for concurrent use by multiple runs.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*string
	logger  *slog.Logger
}

// Load reads the cache file at path. A missing or corrupt file yields an
// empty cache: corruption is logged and overwritten on the next Save,
// never treated as fatal.
func Load(path string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Cache{entries: make(map[string]*string), logger: logger}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c
	}
	if err != nil {
		logger.Warn("issue cache unreadable, starting empty", "path", path, "error", err)
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		logger.Warn("issue cache corrupt, starting empty", "path", path, "error", err)
		c.entries = make(map[string]*string)
	}
	return c
}

// Len returns the number of cached names, hits and negatives both.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Get returns the cached key for a test name. ok is false when the name
// was never looked up; a nil key with ok=true is a cached negative.
func (c *Cache) Get(testName string) (key *string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, ok = c.entries[testName]
	return key, ok
}

// Resolve returns the issue key (or nil) for every given test name.
// Cache hits are served directly; misses go to the searcher in bounded
// batches. A per-name search error degrades to a cached negative — an
// unresolved lookup means "no issue", it never blocks the run.
func (c *Cache) Resolve(ctx context.Context, s Searcher, testNames []string) map[string]*string {
	resolved := make(map[string]*string, len(testNames))

	var misses []string
	for _, name := range testNames {
		if name == "" {
			continue
		}
		if _, done := resolved[name]; done {
			continue
		}
		if key, ok := c.Get(name); ok {
			resolved[name] = key
			continue
		}
		resolved[name] = nil // placeholder, settled below
		misses = append(misses, name)
	}

	if len(misses) == 0 {
		return resolved
	}

	c.logger.Info("resolving issue keys", "misses", len(misses), "hits", len(resolved)-len(misses))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchBatchWidth)

	var mu sync.Mutex
	for _, name := range misses {
		g.Go(func() error {
			var entry *string
			key, found, err := s.FindIssueKey(gctx, name)
			switch {
			case err != nil:
				c.logger.Warn("issue search failed, caching negative", "test", name, "error", err)
			case found:
				entry = &key
			}

			mu.Lock()
			resolved[name] = entry
			mu.Unlock()

			c.mu.Lock()
			c.entries[name] = entry
			c.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return resolved
}

// Save persists the full cache map as a flat JSON object. Called once at
// the end of a run; across runs the cache strictly grows.
func (c *Cache) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("issuecache: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("issuecache: write %s: %w", path, err)
	}
	return nil
}

// Names returns the cached test names, sorted, for diagnostics.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

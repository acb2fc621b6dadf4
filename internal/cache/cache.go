// Package cache memoizes extraction results keyed by image content.
//
// The cache has two tiers: an in-process table for hot entries and a
// directory of one file per key for persistence across restarts. Entries
// expire after a TTL; the memory tier is bounded by entry count and the disk
// tier by total byte size. Payloads are opaque serialized bytes; the cache
// never looks inside them.
//
// The cache directory is safe to delete at any time. Doing so is a full
// cache clear and costs only a temporary throughput hit.
package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// fileExt is the suffix of persisted entries: <dir>/<key>.cache.
const fileExt = ".cache"

// entry is one cached payload with its creation time. Entries are immutable
// once written; a key is only ever replaced wholesale by a fresh Set.
type entry struct {
	CreatedAt int64           `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	HitRate       float64 `json:"hit_rate"`
	MemoryEntries int     `json:"memory_entries"`
	DiskEntries   int     `json:"disk_entries"`
	DiskBytes     int64   `json:"disk_bytes"`
	TTLSeconds    float64 `json:"ttl_seconds"`
}

// Cache is a two-tier TTL cache. All methods are safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	dir     string
	ttl     time.Duration
	maxMem  int
	maxDisk int64
	entries map[string]entry
	hits    uint64
	misses  uint64
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets a custom clock function (for testing).
func WithClock(fn func() time.Time) Option {
	return func(c *Cache) { c.now = fn }
}

// WithLogger sets the cache's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.log = logger }
}

// New creates a cache persisting under dir, creating it if needed. Entries
// older than ttl are treated as misses. maxMemEntries bounds the memory
// tier; maxDiskBytes bounds the disk tier. Expired disk entries left over
// from a previous run are swept on startup.
func New(dir string, ttl time.Duration, maxMemEntries int, maxDiskBytes int64, opts ...Option) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	c := &Cache{
		dir:     dir,
		ttl:     ttl,
		maxMem:  maxMemEntries,
		maxDisk: maxDiskBytes,
		entries: make(map[string]entry),
		now:     time.Now,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(c)
	}
	c.sweepExpired()
	return c, nil
}

// Key builds a cache key from an image content hash and an optional region
// descriptor, so the same image cropped differently caches separately.
func Key(imageHash, region string) string {
	if region == "" {
		return "ocr_" + imageHash
	}
	return "ocr_" + imageHash + "_" + region
}

// Get returns the payload cached under key, consulting the memory tier
// first and falling back to disk. A disk hit is promoted into memory. An
// entry past its TTL is evicted on the way out and reported as a miss.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if c.fresh(e) {
			c.hits++
			return e.Payload, true
		}
		delete(c.entries, key)
		c.removeFile(key)
	} else if e, ok := c.readFile(key); ok {
		if c.fresh(e) {
			c.entries[key] = e
			c.pruneMemory()
			c.hits++
			c.log.Debug("cache hit from disk", "key", key)
			return e.Payload, true
		}
		c.removeFile(key)
	}

	c.misses++
	return nil, false
}

// Set writes payload under key to both tiers, then prunes each tier to its
// bound: memory by entry count (oldest first), disk by total size (oldest
// third deleted once the ceiling is exceeded).
func (c *Cache) Set(key string, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{CreatedAt: c.now().Unix(), Payload: payload}
	c.entries[key] = e
	c.pruneMemory()

	data, err := json.Marshal(e)
	if err != nil {
		c.log.Error("cache: marshal entry failed", "key", key, "error", err)
		return
	}
	if err := os.WriteFile(c.filePath(key), data, 0o644); err != nil {
		c.log.Error("cache: persist entry failed", "key", key, "error", err)
		return
	}
	c.pruneDisk()
}

// Clear drops both tiers entirely.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	files, err := filepath.Glob(filepath.Join(c.dir, "*"+fileExt))
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	c.log.Info("cache cleared")
	return nil
}

// Stats returns a snapshot of the cache counters and tier sizes.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var diskEntries int
	var diskBytes int64
	files, _ := filepath.Glob(filepath.Join(c.dir, "*"+fileExt))
	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			diskEntries++
			diskBytes += info.Size()
		}
	}

	s := Stats{
		Hits:          c.hits,
		Misses:        c.misses,
		MemoryEntries: len(c.entries),
		DiskEntries:   diskEntries,
		DiskBytes:     diskBytes,
		TTLSeconds:    c.ttl.Seconds(),
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

func (c *Cache) fresh(e entry) bool {
	return c.now().Sub(time.Unix(e.CreatedAt, 0)) < c.ttl
}

func (c *Cache) filePath(key string) string {
	return filepath.Join(c.dir, key+fileExt)
}

// readFile loads a disk entry. A file that fails to decode is deleted and
// treated as a miss.
func (c *Cache) readFile(key string) (entry, bool) {
	data, err := os.ReadFile(c.filePath(key))
	if err != nil {
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		c.log.Warn("cache: corrupt entry removed", "key", key, "error", err)
		c.removeFile(key)
		return entry{}, false
	}
	return e, true
}

func (c *Cache) removeFile(key string) {
	if err := os.Remove(c.filePath(key)); err != nil && !os.IsNotExist(err) {
		c.log.Warn("cache: remove entry failed", "key", key, "error", err)
	}
}

// pruneMemory evicts the globally-oldest entries until the memory tier is
// within its bound. Must be called with mu held.
func (c *Cache) pruneMemory() {
	if c.maxMem <= 0 || len(c.entries) <= c.maxMem {
		return
	}
	type aged struct {
		key string
		at  int64
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{k, e.CreatedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
	for _, a := range all[:len(all)-c.maxMem] {
		delete(c.entries, a.key)
	}
}

// pruneDisk deletes the oldest third of disk entries once their total size
// exceeds the ceiling. Must be called with mu held.
func (c *Cache) pruneDisk() {
	if c.maxDisk <= 0 {
		return
	}
	files, err := filepath.Glob(filepath.Join(c.dir, "*"+fileExt))
	if err != nil {
		return
	}
	type aged struct {
		path string
		mod  time.Time
	}
	var total int64
	all := make([]aged, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		total += info.Size()
		all = append(all, aged{f, info.ModTime()})
	}
	if total <= c.maxDisk {
		return
	}
	sort.Slice(all, func(i, j int) bool { return all[i].mod.Before(all[j].mod) })
	for _, a := range all[:len(all)/3] {
		if err := os.Remove(a.path); err == nil {
			c.log.Info("cache: evicted old entry", "file", filepath.Base(a.path))
		}
	}
}

// sweepExpired removes disk entries past their TTL, called once at startup.
func (c *Cache) sweepExpired() {
	files, err := filepath.Glob(filepath.Join(c.dir, "*"+fileExt))
	if err != nil {
		return
	}
	removed := 0
	for _, f := range files {
		key := strings.TrimSuffix(filepath.Base(f), fileExt)
		e, ok := c.readFile(key)
		if !ok {
			removed++ // corrupt, already deleted by readFile
			continue
		}
		if !c.fresh(e) {
			c.removeFile(key)
			removed++
		}
	}
	if removed > 0 {
		c.log.Info("cache: swept expired entries", "count", removed)
	}
}
